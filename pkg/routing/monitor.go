package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// healthMonitor runs the periodic health sweep on a cron schedule. Its
// lifetime is driven by the Manager: running while providers are
// registered, stopped when the set empties or the Manager closes.
type healthMonitor struct {
	interval time.Duration
	sweep    func(ctx context.Context)
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func newHealthMonitor(interval time.Duration, sweep func(ctx context.Context), logger *zap.Logger) *healthMonitor {
	return &healthMonitor{
		interval: interval,
		sweep:    sweep,
		logger:   logger,
	}
}

// sync starts or stops the monitor so that it runs exactly when active
// reports true. The check and the transition happen under one lock.
func (hm *healthMonitor) sync(active func() bool) error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if active() {
		return hm.startLocked()
	}
	hm.stopLocked()
	return nil
}

func (hm *healthMonitor) stop() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.stopLocked()
}

func (hm *healthMonitor) startLocked() error {
	if hm.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{hm.logger.Sugar()}),
		cron.SkipIfStillRunning(cronLogger{hm.logger.Sugar()}),
	))

	spec := fmt.Sprintf("@every %s", hm.interval)
	if _, err := c.AddFunc(spec, func() { hm.sweep(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule health monitor %q: %w", spec, err)
	}

	c.Start()
	hm.cron = c
	hm.cancel = cancel
	hm.running = true

	hm.logger.Info("health monitor started", zap.Duration("interval", hm.interval))
	return nil
}

// stopLocked cancels any sweep in progress and waits for it to return.
func (hm *healthMonitor) stopLocked() {
	if !hm.running {
		return
	}

	hm.cancel()
	<-hm.cron.Stop().Done()
	hm.cron = nil
	hm.cancel = nil
	hm.running = false

	hm.logger.Info("health monitor stopped")
}

func (hm *healthMonitor) isRunning() bool {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return hm.running
}

// nextRun returns the next scheduled sweep, if the monitor is running.
func (hm *healthMonitor) nextRun() (time.Time, bool) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if !hm.running {
		return time.Time{}, false
	}
	entries := hm.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
