package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/config"
	"github.com/san-kum/pendulab/internal/dispatch"
	"github.com/san-kum/pendulab/internal/engine"
	"github.com/san-kum/pendulab/internal/sim"
	"github.com/san-kum/pendulab/internal/storeclient"
	"github.com/san-kum/pendulab/internal/trials"
	"go.uber.org/zap"
)

var ErrNotSetup = errors.New("experiment: not setup")

type Config struct {
	Params       sim.Params
	Profile      sim.Profile
	StoreURL     string
	StoreTimeout time.Duration
	Trials       int
}

// FromConfig turns a loaded config file into an experiment of n trials.
func FromConfig(cfg *config.Config, n int) Config {
	return Config{
		Params:       cfg.Params(),
		Profile:      cfg.SimProfile(),
		StoreURL:     cfg.Store.URL,
		StoreTimeout: cfg.Store.Timeout,
		Trials:       n,
	}
}

// Experiment wires one session: clock, engine, trial log, store client,
// dispatcher, recorder, aggregator and simulation loop.
type Experiment struct {
	cfg    Config
	logger *zap.Logger

	engine     *engine.Serial
	log        *trials.Log
	store      trials.Store
	dispatcher *dispatch.Dispatcher
	recorder   *trials.Recorder
	aggregator *trials.Aggregator
	loop       *sim.Loop
}

func New(cfg Config, c clock.Clock, logger *zap.Logger) (*Experiment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = clock.Real()
	}
	if cfg.Trials < 1 {
		cfg.Trials = 1
	}
	cfg.Params = cfg.Params.Sanitize()

	e := &Experiment{
		cfg:    cfg,
		logger: logger,
		engine: engine.NewSerial(c, logger.Named("engine")),
		log:    trials.NewLog(),
	}

	if cfg.StoreURL != "" {
		client, err := storeclient.New(cfg.StoreURL,
			storeclient.WithTimeout(cfg.StoreTimeout),
			storeclient.WithLogger(logger.Named("store")))
		if err != nil {
			return nil, err
		}
		e.store = client
		e.dispatcher = dispatch.New(logger.Named("dispatch"), dispatch.WithTimeout(cfg.StoreTimeout))
	}

	var dispatcher trials.Dispatcher
	if e.dispatcher != nil {
		dispatcher = e.dispatcher
	}
	e.recorder = trials.NewRecorder(e.log, e.store, dispatcher, logger.Named("trials"))
	e.aggregator = trials.NewAggregator(e.log, e.store, cfg.StoreTimeout, logger.Named("trials"))
	return e, nil
}

// Setup builds the simulation loop reporting to observer, which may be nil.
func (e *Experiment) Setup(observer sim.Observer) {
	e.loop = sim.NewLoop(e.engine, e.cfg.Profile, e.recorder, observer, e.logger.Named("sim"))
}

func (e *Experiment) Config() Config                 { return e.cfg }
func (e *Experiment) Engine() *engine.Serial         { return e.engine }
func (e *Experiment) Loop() *sim.Loop                { return e.loop }
func (e *Experiment) Log() *trials.Log               { return e.log }
func (e *Experiment) Aggregator() *trials.Aggregator { return e.aggregator }

type Report struct {
	Trials []trials.Trial
	Result trials.Result
}

// Run performs the configured number of trials back to back in real time
// and then averages them. Cancelling ctx stops the trial in flight and
// abandons pending store calls; the trials already completed are still
// reported.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if e.loop == nil {
		return nil, ErrNotSetup
	}

	for i := 0; i < e.cfg.Trials; i++ {
		if !e.loop.Start(e.cfg.Params) {
			return nil, fmt.Errorf("experiment: trial %d: %w", i+1, sim.ErrRunning)
		}
		if err := e.engine.Run(ctx); err != nil {
			e.loop.Stop()
			e.Abort()
			return e.report(context.Background()), err
		}
		if err := e.loop.Err(); err != nil {
			return e.report(context.Background()), err
		}
	}
	return e.report(ctx), nil
}

func (e *Experiment) report(ctx context.Context) *Report {
	e.Flush(ctx)
	return &Report{Trials: e.log.Trials(), Result: e.aggregator.Average(ctx)}
}

// Flush waits for the store calls queued so far, so that an average asked
// for afterwards sees every committed trial.
func (e *Experiment) Flush(ctx context.Context) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.Wait(ctx); err != nil {
		e.logger.Warn("store calls still pending", zap.Error(err))
	}
}

// Abort cancels the store calls in flight and those still queued.
func (e *Experiment) Abort() {
	if e.dispatcher != nil {
		e.dispatcher.Abort()
	}
}

// Close drains pending store calls.
func (e *Experiment) Close() {
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
}
