package trials

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Source tells where an average came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// Result is a derived, never persisted statistics value.
type Result struct {
	Average float64
	Count   int
	Source  Source
}

// Empty reports whether there was nothing to average.
func (r Result) Empty() bool { return r.Count == 0 }

// Aggregator computes the mean period, trusting the external store only
// when it agrees with the local log on the trial count.
type Aggregator struct {
	log     *Log
	store   Store
	timeout time.Duration
	logger  *zap.Logger
}

func NewAggregator(log *Log, store Store, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		log:     log,
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// Average never fails: any store problem resolves to the local mean.
func (a *Aggregator) Average(ctx context.Context) Result {
	local := a.log.Len()
	if local == 0 {
		return LocalAverage(nil)
	}

	if a.store != nil {
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		summary, err := a.store.Average(ctx)
		switch {
		case err != nil:
			a.logger.Warn("store average unavailable, using local log", zap.Error(err))
		case summary.Status != StatusSuccess:
			a.logger.Warn("store average not successful, using local log",
				zap.String("status", summary.Status))
		case summary.Count != local:
			a.logger.Info("store count disagrees with local log, using local log",
				zap.Int("store_count", summary.Count),
				zap.Int("local_count", local))
		default:
			return Result{Average: summary.Average, Count: summary.Count, Source: SourceExternal}
		}
	}

	return LocalAverage(a.log.Periods())
}

// LocalAverage is the mean of periods, or the empty result.
func LocalAverage(periods []float64) Result {
	if len(periods) == 0 {
		return Result{Source: SourceLocal}
	}
	sum := 0.0
	for _, p := range periods {
		sum += p
	}
	return Result{
		Average: sum / float64(len(periods)),
		Count:   len(periods),
		Source:  SourceLocal,
	}
}
