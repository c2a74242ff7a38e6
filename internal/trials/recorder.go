package trials

import (
	"context"

	"go.uber.org/zap"
)

// Recorder commits completed trials to the local log and forwards them to
// the external store. The local log is authoritative; forwarding is
// fire-and-forget.
type Recorder struct {
	log        *Log
	store      Store
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewRecorder wires a recorder. store may be nil for a purely local run.
func NewRecorder(log *Log, store Store, dispatcher Dispatcher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		log:        log,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (r *Recorder) Log() *Log { return r.log }

// Commit appends the trial and hands the store call to the dispatcher. The
// returned trial is final regardless of what the store does with it.
func (r *Recorder) Commit(m Measurement) (Trial, error) {
	t, err := r.log.Append(m)
	if err != nil {
		return Trial{}, err
	}

	r.logger.Info("trial committed",
		zap.Int("number", t.Number),
		zap.Float64("oscillations", t.Oscillations),
		zap.Float64("total_time", t.TotalTime),
		zap.Float64("period", t.Period),
		zap.String("session", t.SessionID))

	r.forward("add_data", func(ctx context.Context) error {
		return r.store.Add(ctx, t)
	})
	return t, nil
}

// Reset clears the local log and asks the store to drop its trials.
func (r *Recorder) Reset() {
	r.log.Reset()
	r.logger.Info("trial log cleared", zap.String("session", r.log.Session()))
	r.forward("clear_data", func(ctx context.Context) error {
		return r.store.Clear(ctx)
	})
}

func (r *Recorder) forward(name string, fn func(ctx context.Context) error) {
	if r.store == nil || r.dispatcher == nil {
		return
	}
	if !r.dispatcher.Go(name, fn) {
		r.logger.Warn("store call dropped", zap.String("op", name))
	}
}
