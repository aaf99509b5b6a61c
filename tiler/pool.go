package tiler

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is how long a worker waits on the job queue before
// re-checking for shutdown.
const DefaultPollInterval = 100 * time.Millisecond

// PoolConfig configures a worker Pool. The zero value gives one worker
// polling every DefaultPollInterval.
type PoolConfig struct {
	// Workers is the number of fetch goroutines. Zero means 1.
	Workers int
	// PollInterval is the job-queue wait per loop iteration, which bounds
	// how long shutdown can take. Zero means DefaultPollInterval.
	PollInterval time.Duration
	// Logger receives per-tile fetch failures. Nil means log.Default().
	Logger *log.Logger
}

// Pool runs background workers that drain the Tiler's job queue, fetch
// tiles from a Provider, and deposit the results. Provider failures are
// logged per job and never stop a worker; the failed coordinate is simply
// re-requested by the next reconciliation that still needs it.
type Pool struct {
	tiler    *Tiler
	provider Provider
	workers  int
	poll     time.Duration
	logger   *log.Logger

	stop     chan struct{}
	stopOnce sync.Once
	group    errgroup.Group
	started  bool
}

// NewPool creates a Pool fetching tiles for t from p. Call Start to launch
// the workers.
func NewPool(t *Tiler, p Provider, cfg PoolConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{
		tiler:    t,
		provider: p,
		workers:  workers,
		poll:     poll,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the worker goroutines. It must be called at most once.
func (p *Pool) Start() {
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.group.Go(p.run)
	}
}

// Stop asks the workers to finish and waits for them. A fetch already in
// flight is allowed to complete; its result is deposited and kept in the
// cache like any other. Stop is idempotent.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started {
		p.group.Wait()
	}
}

func (p *Pool) run() error {
	for {
		select {
		case <-p.stop:
			return nil
		default:
		}
		coord, err := p.tiler.NextJob(p.poll)
		if err != nil {
			// ErrEmpty: nothing to do, loop back to the shutdown check.
			continue
		}
		tile, err := p.fetch(coord)
		if err != nil {
			p.logger.Printf("tiler: fetch tile (%d,%d): %v", coord.X, coord.Y, err)
			continue
		}
		p.tiler.Deposit(coord, tile)
	}
}

// fetch calls the provider, converting a panic into an ordinary per-job
// error so a misbehaving provider cannot kill the worker.
func (p *Pool) fetch(coord TileCoord) (tile image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return p.provider.Fetch(coord.X, coord.Y)
}
