// Package monitoring watches the process for leaked goroutines. The engine
// owns one tick goroutine per live session and the saver one per in-flight
// write, so steady growth means a tick source outlived its session.
package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds monitor settings.
type Config struct {
	CheckInterval time.Duration
	// GrowthThreshold is how many goroutines above baseline trigger a warning.
	GrowthThreshold int
	AlertCooldown   time.Duration
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:   30 * time.Second,
		GrowthThreshold: 64,
		AlertCooldown:   5 * time.Minute,
	}
}

// GoroutineMonitor tracks goroutine counts against a baseline taken at
// construction.
type GoroutineMonitor struct {
	mu        sync.RWMutex
	config    Config
	baseline  int
	current   int
	peak      int
	alerts    int
	lastAlert time.Time
	count     func() int
	logger    zerolog.Logger
}

// NewGoroutineMonitor records the current goroutine count as baseline.
func NewGoroutineMonitor(cfg Config, logger zerolog.Logger) *GoroutineMonitor {
	return newMonitor(cfg, logger, runtime.NumGoroutine)
}

func newMonitor(cfg Config, logger zerolog.Logger, count func() int) *GoroutineMonitor {
	baseline := count()
	return &GoroutineMonitor{
		config:   cfg,
		baseline: baseline,
		current:  baseline,
		peak:     baseline,
		count:    count,
		logger:   logger.With().Str("component", "GoroutineMonitor").Logger(),
	}
}

// Run checks every CheckInterval until ctx is cancelled.
func (gm *GoroutineMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(gm.config.CheckInterval)
	defer ticker.Stop()

	gm.logger.Info().Int("baseline", gm.baseline).Msg("Started goroutine monitoring")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.Check()
		}
	}
}

// Check samples the goroutine count once and warns if it grew past the
// threshold. Warnings are rate limited by AlertCooldown.
func (gm *GoroutineMonitor) Check() Metrics {
	current := gm.count()

	gm.mu.Lock()
	gm.current = current
	if current > gm.peak {
		gm.peak = current
	}
	growth := current - gm.baseline
	alert := growth > gm.config.GrowthThreshold &&
		(gm.lastAlert.IsZero() || time.Since(gm.lastAlert) > gm.config.AlertCooldown)
	if alert {
		gm.lastAlert = time.Now()
		gm.alerts++
	}
	m := gm.metricsLocked()
	gm.mu.Unlock()

	gm.logger.Debug().
		Int("current", m.Current).
		Int("baseline", m.Baseline).
		Int("peak", m.Peak).
		Msg("Goroutine metrics")

	if alert {
		gm.logger.Warn().
			Int("current", current).
			Int("growth", growth).
			Int("threshold", gm.config.GrowthThreshold).
			Msg("High goroutine count detected - possible leaked tick source")
	}
	return m
}

func (gm *GoroutineMonitor) Metrics() Metrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.metricsLocked()
}

func (gm *GoroutineMonitor) metricsLocked() Metrics {
	return Metrics{
		Current:  gm.current,
		Baseline: gm.baseline,
		Peak:     gm.peak,
		Growth:   gm.current - gm.baseline,
		Alerts:   gm.alerts,
	}
}

// Metrics contains goroutine statistics
type Metrics struct {
	Current  int `json:"current"`
	Baseline int `json:"baseline"`
	Peak     int `json:"peak"`
	Growth   int `json:"growth"`
	Alerts   int `json:"alerts"`
}
