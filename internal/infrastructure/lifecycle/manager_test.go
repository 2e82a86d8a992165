package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type cleanupRecorderFake struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *cleanupRecorderFake) ObserveCleanup(trigger, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[trigger+"/"+outcome]++
}

func (r *cleanupRecorderFake) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[key]
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestSweepSkipsActiveFiles(t *testing.T) {
	dir := t.TempDir()
	active := writeFile(t, dir, "active.pdf")
	stale := writeFile(t, dir, "stale.xlsx")

	now := time.Now()
	recorder := &cleanupRecorderFake{}
	m := NewManager(NewRegistry(), Options{
		Dir:         dir,
		SweepMaxAge: time.Minute,
		Now:         func() time.Time { return now.Add(time.Hour) },
		Recorder:    recorder,
	})
	m.Protect(active)

	report := m.Sweep(context.Background())
	if report.Removed != 1 || report.SkippedActive != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !exists(active) {
		t.Fatalf("expected active file to survive sweep")
	}
	if exists(stale) {
		t.Fatalf("expected stale file to be removed")
	}
	if recorder.count(TriggerSweep+"/"+OutcomeDeleted) != 1 {
		t.Fatalf("expected one recorded sweep deletion")
	}
}

func TestSweepKeepsFreshFiles(t *testing.T) {
	dir := t.TempDir()
	fresh := writeFile(t, dir, "fresh.pdf")

	m := NewManager(nil, Options{Dir: dir, SweepMaxAge: time.Hour})
	report := m.Sweep(context.Background())
	if report.Scanned != 1 || report.Removed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !exists(fresh) {
		t.Fatalf("expected fresh file to survive")
	}
}

func TestSweepMissingDirectoryIsNoop(t *testing.T) {
	m := NewManager(nil, Options{Dir: filepath.Join(t.TempDir(), "nope")})
	if report := m.Sweep(context.Background()); report.Scanned != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestReclaimMissingFileIsNoop(t *testing.T) {
	recorder := &cleanupRecorderFake{}
	m := NewManager(nil, Options{Dir: t.TempDir(), Recorder: recorder})
	missing := filepath.Join(t.TempDir(), "gone.pdf")

	if got := m.reclaim(missing, TriggerTimer); got != OutcomeMissing {
		t.Fatalf("expected missing outcome, got %s", got)
	}
	if got := m.reclaim(missing, TriggerSweep); got != OutcomeMissing {
		t.Fatalf("expected missing outcome, got %s", got)
	}
}

func TestReleaseSchedulesDeletion(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.pdf")
	output := writeFile(t, dir, "out.xlsx")

	recorder := &cleanupRecorderFake{}
	m := NewManager(nil, Options{Dir: dir, RetentionDelay: 10 * time.Millisecond, Recorder: recorder})
	m.Protect(input, output)
	if m.Registry().Len() != 2 {
		t.Fatalf("expected 2 active paths, got %d", m.Registry().Len())
	}
	m.Release(input, output)

	waitFor(t, func() bool { return !exists(input) && !exists(output) })
	waitFor(t, func() bool { return m.Pending() == 0 })
	if recorder.count(TriggerTimer+"/"+OutcomeDeleted) != 2 {
		t.Fatalf("expected 2 timer deletions, got %d", recorder.count(TriggerTimer+"/"+OutcomeDeleted))
	}
}

func TestProtectCancelsPendingDeletion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "reused.pdf")

	m := NewManager(nil, Options{Dir: dir, RetentionDelay: 30 * time.Millisecond})
	m.Release(path)
	if m.Pending() != 1 {
		t.Fatalf("expected one pending deletion")
	}
	m.Protect(path)
	if m.Pending() != 0 {
		t.Fatalf("expected protect to cancel pending deletion")
	}

	time.Sleep(60 * time.Millisecond)
	if !exists(path) {
		t.Fatalf("expected protected file to survive")
	}
	if m.Cancel(path) {
		t.Fatalf("expected nothing left to cancel")
	}
}

func TestScheduleDeletionReplacesTimer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.pdf")

	m := NewManager(nil, Options{Dir: dir})
	m.ScheduleDeletion(path, time.Hour)
	m.ScheduleDeletion(path, 5*time.Millisecond)

	waitFor(t, func() bool { return !exists(path) })
	if m.Pending() != 0 {
		t.Fatalf("expected superseded timer to be dropped")
	}
}

func TestStartRunsInitialSweep(t *testing.T) {
	dir := t.TempDir()
	stale := writeFile(t, dir, "old.xlsx")
	now := time.Now()

	m := NewManager(nil, Options{
		Dir:           dir,
		SweepMaxAge:   time.Minute,
		SweepInterval: time.Hour,
		Now:           func() time.Time { return now.Add(time.Hour) },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()
	if exists(stale) {
		t.Fatalf("expected initial sweep to remove stale file")
	}
	if err := m.Start(ctx); err == nil {
		t.Fatalf("expected second Start to fail")
	}
}

func TestPurgeRemovesReleasedKeepsActive(t *testing.T) {
	dir := t.TempDir()
	released := writeFile(t, dir, "in.pdf")
	active := writeFile(t, dir, "out.xlsx")
	recorder := &cleanupRecorderFake{}

	m := NewManager(nil, Options{Dir: dir, RetentionDelay: time.Hour, Recorder: recorder})
	m.Release(released)
	m.Protect(active)

	m.Purge(released, active)
	if exists(released) {
		t.Fatalf("expected released file to be purged")
	}
	if !exists(active) {
		t.Fatalf("expected active file to survive purge")
	}
	if m.Pending() != 0 {
		t.Fatalf("expected purge to cancel the pending timer")
	}
	if recorder.count("purge/deleted") != 1 || recorder.count("purge/skipped_active") != 1 {
		t.Fatalf("unexpected purge outcomes %v", recorder.outcomes)
	}
}
