package export

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/qube/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func TestSchedulerStartStop(t *testing.T) {
	src := &fakeSource{auths: []*model.Authorization{
		{ProjectUUID: "p-1", Qualifier: model.QualifierProject, UpdatedAt: time.Now().UTC()},
	}}

	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(src, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}

	// 1 header + 1 authorization
	if lines := nonEmptyLines(string(data)); len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(&fakeSource{}, nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	failing := &mockDestination{err: errors.New("unreachable")}
	ok := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(&fakeSource{}, []Destination{failing, ok}, time.Second, logger)
	sched.Start()

	// Wait for the initial export.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if failing.writes.Load() < 1 {
		t.Fatal("failing destination expected at least 1 write")
	}
	if ok.writes.Load() < 1 {
		t.Fatal("a failing destination must not block the others")
	}
}

func TestSchedulerSkipsWritesOnSourceError(t *testing.T) {
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(&fakeSource{err: errors.New("db down")}, []Destination{dest}, time.Second, logger)
	sched.Start()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if n := dest.writes.Load(); n != 0 {
		t.Fatalf("writes = %d, want 0", n)
	}
}
