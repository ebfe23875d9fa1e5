package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/UTP-Network/payment_gateway/internal/app/system"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

var _ system.Service = (*Refresher)(nil)

// Refresher pre-warms the oracle cache on a cron-style schedule so the first
// request after a quiet period does not pay the fetch latency.
type Refresher struct {
	service  *Service
	schedule cron.Schedule
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRefresher creates a lifecycle-managed cache refresher. The spec uses the
// standard cron grammar, including @every durations.
func NewRefresher(service *Service, spec string, log *logger.Logger) (*Refresher, error) {
	if log == nil {
		log = logger.NewDefault("oracle-refresher")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return &Refresher{
		service:  service,
		schedule: schedule,
		log:      log,
	}, nil
}

func (r *Refresher) Name() string { return "oracle-refresher" }

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := r.schedule.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("oracle cache refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("oracle cache refresher stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if r.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	r.service.Refresh(ctx)
}
