package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const (
	TriggerTimer = "timer"
	TriggerSweep = "sweep"
	TriggerPurge = "purge"

	OutcomeDeleted = "deleted"
	OutcomeMissing = "missing"
	OutcomeFailed  = "failed"
	OutcomeActive  = "skipped_active"
)

// CleanupRecorder observes every reclamation attempt.
type CleanupRecorder interface {
	ObserveCleanup(trigger, outcome string)
}

type Options struct {
	Dir            string
	RetentionDelay time.Duration
	SweepMaxAge    time.Duration
	SweepInterval  time.Duration
	Now            func() time.Time
	Recorder       CleanupRecorder
}

func (o Options) normalize() Options {
	if o.RetentionDelay <= 0 {
		o.RetentionDelay = 180 * time.Second
	}
	if o.SweepMaxAge <= 0 {
		o.SweepMaxAge = 300 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 180 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Recorder == nil {
		o.Recorder = noopRecorder{}
	}
	return o
}

type SweepReport struct {
	Scanned       int
	Removed       int
	SkippedActive int
	Failed        int
}

// Manager owns transient artifacts from upload until reclamation. Deletion is
// triggered by a per-file timer after release or by the periodic sweep;
// whichever runs first wins, the other finds nothing to do.
type Manager struct {
	opts     Options
	registry *Registry

	mu      sync.Mutex
	pending map[string]*time.Timer

	cronMu    sync.Mutex
	scheduler *cron.Cron
}

func NewManager(registry *Registry, opts Options) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		opts:     opts.normalize(),
		registry: registry,
		pending:  make(map[string]*time.Timer),
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Protect marks paths Active and revokes any deletion already scheduled for them.
func (m *Manager) Protect(paths ...string) {
	m.registry.Add(paths...)
	for _, p := range paths {
		m.Cancel(p)
	}
}

// Release hands paths back for delayed reclamation.
func (m *Manager) Release(paths ...string) {
	m.registry.Remove(paths...)
	for _, p := range paths {
		m.ScheduleDeletion(p, m.opts.RetentionDelay)
	}
}

// ScheduleDeletion replaces any timer already pending for path.
func (m *Manager) ScheduleDeletion(path string, delay time.Duration) {
	key := normalize(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.pending[key]; ok {
		existing.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.pending[key] != timer {
			m.mu.Unlock()
			return
		}
		delete(m.pending, key)
		m.mu.Unlock()

		m.reclaim(key, TriggerTimer)
	})
	m.pending[key] = timer
}

// Cancel stops a pending deletion and reports whether one existed.
func (m *Manager) Cancel(path string) bool {
	key := normalize(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	timer, ok := m.pending[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(m.pending, key)
	return true
}

func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Sweep reclaims every regular file in the directory older than the max age
// that no job currently owns.
func (m *Manager) Sweep(ctx context.Context) SweepReport {
	var report SweepReport

	entries, err := os.ReadDir(m.opts.Dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("cleanup_sweep_failed", "dir", m.opts.Dir, "error", err)
		}
		return report
	}

	cutoff := m.opts.Now().Add(-m.opts.SweepMaxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		report.Scanned++
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := normalize(filepath.Join(m.opts.Dir, entry.Name()))
		switch m.reclaim(path, TriggerSweep) {
		case OutcomeDeleted:
			report.Removed++
			m.Cancel(path)
		case OutcomeActive:
			report.SkippedActive++
		case OutcomeFailed:
			report.Failed++
		}
	}

	slog.Debug("cleanup_sweep_finished",
		"dir", m.opts.Dir,
		"scanned", report.Scanned,
		"removed", report.Removed,
		"skipped_active", report.SkippedActive,
		"failed", report.Failed,
	)
	return report
}

// Purge cancels pending timers for paths and reclaims them right away. Active
// paths are left alone.
func (m *Manager) Purge(paths ...string) {
	for _, p := range paths {
		m.Cancel(p)
		m.reclaim(normalize(p), TriggerPurge)
	}
}

// reclaim deletes path unless it is Active. Failures are logged and not retried.
func (m *Manager) reclaim(path, trigger string) string {
	outcome := OutcomeActive
	m.registry.unlessActive(path, func() {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			outcome = OutcomeMissing
			return
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				outcome = OutcomeMissing
				return
			}
			outcome = OutcomeFailed
			slog.Warn("cleanup_failed",
				"path", path,
				"trigger", trigger,
				"error", domain.WrapError(domain.ErrCleanup, "remove artifact", err),
			)
			return
		}
		outcome = OutcomeDeleted
		slog.Debug("cleanup_deleted", "path", path, "trigger", trigger)
	})
	m.opts.Recorder.ObserveCleanup(trigger, outcome)
	return outcome
}

// Start runs one sweep immediately and then on every interval until ctx is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.scheduler != nil {
		return fmt.Errorf("lifecycle manager already started")
	}

	m.Sweep(ctx)

	logger := cronLogger{}
	scheduler := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))
	spec := fmt.Sprintf("@every %s", m.opts.SweepInterval)
	if _, err := scheduler.AddFunc(spec, func() { m.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	scheduler.Start()
	m.scheduler = scheduler

	slog.Info("cleanup_scheduler_started",
		"dir", m.opts.Dir,
		"interval", m.opts.SweepInterval.String(),
		"max_age", m.opts.SweepMaxAge.String(),
		"retention_delay", m.opts.RetentionDelay.String(),
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the sweep schedule and pending timers. Artifacts left behind are
// picked up by the first sweep of the next process.
func (m *Manager) Stop() {
	m.cronMu.Lock()
	scheduler := m.scheduler
	m.scheduler = nil
	m.cronMu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	m.mu.Lock()
	for key, timer := range m.pending {
		timer.Stop()
		delete(m.pending, key)
	}
	m.mu.Unlock()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron_"+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}

type noopRecorder struct{}

func (noopRecorder) ObserveCleanup(string, string) {}
