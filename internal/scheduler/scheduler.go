package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"StockStream/internal/collector"
	"StockStream/internal/model"
	"StockStream/internal/pipeline"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// DefaultWindowSize is the moving-average window used when none is configured.
const DefaultWindowSize = 30

// Mode selects how often the driver runs a cycle.
type Mode int

const (
	// OneShot runs a single cycle and closes the sink when it completes.
	OneShot Mode = iota
	// Interval re-runs a cycle every Options.Interval until cancelled.
	Interval
)

// State is the driver lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Options configures a Driver. Zero values take defaults.
type Options struct {
	Mode         Mode
	Interval     time.Duration
	WindowSize   int
	SinkCapacity int
	Now          func() time.Time
}

// Driver spawns one worker per symbol per cycle and owns the result sink.
type Driver struct {
	Source collector.QuoteSource

	opts Options
	sink *pipeline.Sink

	wg       sync.WaitGroup // one count per cycle in flight
	mu       sync.Mutex
	state    State
	active   int
	stopping bool
	cycles   atomic.Int64
	started  atomic.Bool
}

// NewDriver creates a driver reading from src.
func NewDriver(src collector.QuoteSource, opts Options) *Driver {
	if opts.WindowSize == 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.SinkCapacity == 0 {
		opts.SinkCapacity = pipeline.DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{
		Source: src,
		opts:   opts,
		sink:   pipeline.NewSink(opts.SinkCapacity),
	}
}

// Records is the single output stream. It is closed once the driver terminates.
func (d *Driver) Records() <-chan model.ResultRecord { return d.sink.Records() }

// Sink exposes the underlying result sink.
func (d *Driver) Sink() *pipeline.Sink { return d.sink }

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Cycles returns how many cycles have been started.
func (d *Driver) Cycles() int64 { return d.cycles.Load() }

// StartCycle spawns one worker per symbol and returns the cycle ID without
// waiting for the workers.
func (d *Driver) StartCycle(ctx context.Context, symbols []string, rng model.TimeRange) string {
	id := uuid.NewString()
	n := d.cycles.Add(1)

	d.mu.Lock()
	d.active++
	if !d.stopping {
		d.state = StateRunning
	}
	d.mu.Unlock()

	w := &pipeline.Worker{Source: d.Source, Sink: d.sink, WindowSize: d.opts.WindowSize}
	log.Printf("[INFO] cycle %d (%s) started: %d symbols, %s .. %s",
		n, id, len(symbols), rng.Start.Format(time.RFC3339), rng.End.Format(time.RFC3339))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var workers sync.WaitGroup
		var counts [3]atomic.Int32
		for _, sym := range symbols {
			workers.Add(1)
			go func(sym string) {
				defer workers.Done()
				counts[w.Run(ctx, id, sym, rng)].Add(1)
			}(sym)
		}
		workers.Wait()

		log.Printf("[INFO] cycle %d (%s) done: published=%d empty=%d failed=%d", n, id,
			counts[pipeline.OutcomePublished].Load(),
			counts[pipeline.OutcomeEmpty].Load(),
			counts[pipeline.OutcomeFailed].Load())
		d.cycleDone()
	}()
	return id
}

func (d *Driver) cycleDone() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active--
	if d.active == 0 && !d.stopping {
		d.state = StateIdle
	}
}

// Run validates the input and drives cycles according to the mode. It always
// closes the sink before returning, so a consumer ranging over Records
// terminates. In Interval mode Run blocks until ctx is cancelled; in-flight
// workers are then allowed to finish before the sink closes.
func (d *Driver) Run(ctx context.Context, symbols []string, start, end time.Time) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("driver already ran")
	}
	defer d.shutdown()

	syms, err := model.NormalizeSymbols(symbols)
	if err != nil {
		return err
	}
	if err := d.validate(); err != nil {
		return err
	}

	// Workers are never interrupted mid-fetch by the stop signal.
	workCtx := context.WithoutCancel(ctx)

	switch d.opts.Mode {
	case OneShot:
		if end.IsZero() {
			end = d.opts.Now()
		}
		rng := model.TimeRange{Start: start, End: end}
		if err := rng.Validate(); err != nil {
			return &model.ArgumentError{Field: "range", Reason: err.Error()}
		}
		d.StartCycle(workCtx, syms, rng)
		return nil

	case Interval:
		if !end.IsZero() {
			return &model.ArgumentError{Field: "range", Reason: "end is always now in interval mode"}
		}
		if err := (model.TimeRange{Start: start, End: d.opts.Now()}).Validate(); err != nil {
			return &model.ArgumentError{Field: "range", Reason: err.Error()}
		}
		return d.runInterval(ctx, workCtx, syms, start)
	}
	return &model.ArgumentError{Field: "mode", Value: fmt.Sprint(d.opts.Mode), Reason: "unknown mode"}
}

func (d *Driver) validate() error {
	if d.opts.WindowSize <= 0 {
		return &model.ArgumentError{Field: "window size", Value: fmt.Sprint(d.opts.WindowSize), Reason: "must be positive"}
	}
	if d.opts.SinkCapacity <= 0 {
		return &model.ArgumentError{Field: "sink capacity", Value: fmt.Sprint(d.opts.SinkCapacity), Reason: "must be positive"}
	}
	if d.opts.Mode == Interval && d.opts.Interval <= 0 {
		return &model.ArgumentError{Field: "interval", Value: d.opts.Interval.String(), Reason: "must be positive"}
	}
	return nil
}

// fixedDelay fires every d after the previous activation; unlike cron.Every it
// keeps sub-second precision.
type fixedDelay time.Duration

func (f fixedDelay) Next(t time.Time) time.Time { return t.Add(time.Duration(f)) }

func (d *Driver) runInterval(ctx, workCtx context.Context, symbols []string, start time.Time) error {
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))

	job := func() {
		d.StartCycle(workCtx, symbols, model.TimeRange{Start: start, End: d.opts.Now()})
	}
	c.Schedule(fixedDelay(d.opts.Interval), cron.FuncJob(job))

	if ctx.Err() != nil {
		log.Println("[INFO] stop requested before the first cycle")
		return nil
	}
	job()
	c.Start()
	log.Printf("[INFO] scheduler started, interval %s", d.opts.Interval)

	<-ctx.Done()
	log.Println("[INFO] stop requested, waiting for in-flight workers")
	<-c.Stop().Done()
	log.Println("[INFO] scheduler stopped")
	return nil
}

// shutdown waits for every spawned cycle and closes the sink.
func (d *Driver) shutdown() {
	d.mu.Lock()
	d.stopping = true
	d.state = StateDraining
	d.mu.Unlock()

	d.wg.Wait()
	d.sink.Close()

	d.mu.Lock()
	d.state = StateTerminated
	d.mu.Unlock()
}
