// Package health polls the analytics backend liveness endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/pkg/logger"
)

// Status is the last observed backend state.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Checker is the probe the poller runs; the api client's Health method
// satisfies it.
type Checker func(ctx context.Context) error

// Poller periodically probes the backend and surfaces an online/offline
// indicator.
type Poller struct {
	check    Checker
	interval time.Duration
	logger   *logger.Logger

	mu       sync.Mutex
	status   Status
	onChange func(Status)
}

// NewPoller creates a poller. A zero interval defaults to ten seconds.
func NewPoller(check Checker, interval time.Duration, log *logger.Logger) *Poller {
	if interval == 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		check:    check,
		interval: interval,
		logger:   log,
		status:   StatusUnknown,
	}
}

// Status returns the last observed backend status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// OnChange registers a listener invoked whenever the status flips.
func (p *Poller) OnChange(fn func(Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Run probes immediately and then on every tick until the context ends.
func (p *Poller) Run(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Poller) probe(ctx context.Context) {
	status := StatusOnline
	if err := p.check(ctx); err != nil {
		status = StatusOffline
	}

	p.mu.Lock()
	changed := status != p.status
	p.status = status
	fn := p.onChange
	p.mu.Unlock()

	if changed {
		p.logger.Info("backend status changed", zap.String("status", string(status)))
		if fn != nil {
			fn(status)
		}
	}
}
