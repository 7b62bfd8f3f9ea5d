package app

import (
	"context"
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"aircnc/internal/adapters/observability"
	"aircnc/internal/domain"
)

const sendAttempts = 3

// Dispatcher sends mail in detached goroutines. Callers never wait on delivery
// and never see its errors; outcomes go to the log and the notifications counter.
type Dispatcher struct {
	mailer  domain.Mailer
	sem     *semaphore.Weighted
	rl      *rate.Limiter
	timeout time.Duration
	backoff func(i int) time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(m domain.Mailer, workers, rps int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		mailer:  m,
		sem:     semaphore.NewWeighted(int64(workers)),
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
		backoff: backoff,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// WithBackoff replaces the retry delay policy.
func (d *Dispatcher) WithBackoff(f func(i int) time.Duration) *Dispatcher {
	d.backoff = f
	return d
}

func (d *Dispatcher) Dispatch(m domain.Mail) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		observability.ObserveNotification("dropped")
		log.Warn().Str("to", m.To).Str("subject", m.Subject).Msg("dispatcher closed; notification dropped")
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		// acquire inside the goroutine so Dispatch never blocks the caller
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			observability.ObserveNotification("dropped")
			log.Warn().Err(err).Str("to", m.To).Msg("notification dropped")
			return
		}
		defer d.sem.Release(1)

		if err := d.send(m); err != nil {
			observability.ObserveNotification("failed")
			log.Error().Err(err).Str("to", m.To).Str("subject", m.Subject).Msg("notification failed")
			return
		}
		observability.ObserveNotification("sent")
		log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("notification sent")
	}()
}

func (d *Dispatcher) send(m domain.Mail) error {
	var lastErr error
	for i := 0; i < sendAttempts; i++ {
		if err := d.rl.Wait(d.ctx); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		err := d.mailer.Send(ctx, m)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", i+1).Str("to", m.To).Msg("notification attempt failed")
		if i < sendAttempts-1 && !sleepCtx(d.ctx, d.backoff(i)) {
			break
		}
	}
	return lastErr
}

// Close waits for in-flight notifications until ctx expires, then abandons the rest.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
