// Package poller runs a task on a fixed interval with at most one run in
// flight. A tick that fires while the previous run is still busy is dropped,
// never queued.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/formcheck/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// ErrStop can be returned (or wrapped) by a task to end Run after the current run.
var ErrStop = errors.New("poller: stop")

type Task func(ctx context.Context) error

type Stats struct {
	Fired   int64 `json:"fired"`
	Dropped int64 `json:"dropped"`
	Failed  int64 `json:"failed"`
}

type Poller struct {
	interval       time.Duration
	task           Task
	metricsManager *metrics.Manager

	inFlight atomic.Bool
	fired    atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// New creates a poller; metricsManager may be nil.
func New(interval time.Duration, task Task, metricsManager *metrics.Manager) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poller interval must be positive, got %s", interval)
	}
	if task == nil {
		return nil, errors.New("poller task is nil")
	}
	return &Poller{
		interval:       interval,
		task:           task,
		metricsManager: metricsManager,
		stopped:        make(chan struct{}),
	}, nil
}

// Run blocks until ctx is done or a task returns ErrStop, then waits for the
// in-flight run to return.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Debugf("poller: context done: %s", ctx.Err())
			return
		case <-p.stopped:
			log.Debugln("poller: stopped by task")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		p.countTick("dropped")
		log.Warnf("poller: previous run still in flight, tick dropped (total dropped: %d)", p.dropped.Load())
		return
	}

	p.fired.Add(1)
	p.countTick("fired")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		err := p.task(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrStop):
			p.stopOnce.Do(func() { close(p.stopped) })
		default:
			p.failed.Add(1)
			p.countTick("failed")
			log.Errorf("poller: task: %s", err)
		}
	}()
}

func (p *Poller) countTick(outcome string) {
	if p.metricsManager != nil {
		p.metricsManager.CounterPollerTicks.WithLabelValues(outcome).Inc()
	}
}

func (p *Poller) Stats() Stats {
	return Stats{
		Fired:   p.fired.Load(),
		Dropped: p.dropped.Load(),
		Failed:  p.failed.Load(),
	}
}
