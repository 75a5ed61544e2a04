package rangelock

import (
	"context"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager(DefaultConfig(), nil)
}

func TestManager_HandlesAreIsolated(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	if err := m.SetLock(context.Background(), "file-a", Owner{ID: "P1"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10}); err != nil {
		t.Fatalf("lock on file-a failed: %v", err)
	}
	// Same range, different holder, different file: unrelated, must not conflict.
	if err := m.SetLock(context.Background(), "file-b", Owner{ID: "P2"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10}); err != nil {
		t.Fatalf("lock on file-b should not be affected by file-a's lock: %v", err)
	}

	blocker := m.GetLock("file-a", Owner{ID: "P2"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10})
	if blocker.Type != Exclusive || blocker.Start != 0 {
		t.Fatalf("expected P1's lock reported as blocker on file-a, got %+v", blocker)
	}

	blocker = m.GetLock("file-b", Owner{ID: "P1"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10})
	if blocker.Type != Exclusive {
		t.Fatalf("expected P2's lock reported as blocker on file-b, got %+v", blocker)
	}
}

func TestManager_GetLockReportsUnlockWhenFree(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	blocker := m.GetLock("file-a", Owner{ID: "P1"}, POSIX, Flock{Type: Shared, Start: 0, Len: 0})
	if blocker.Type != Unlock {
		t.Fatalf("expected Unlock on a quiescent handle, got %+v", blocker)
	}
}

func TestManager_ClearLockReleasesAcrossCalls(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	if err := m.SetLock(context.Background(), "file-a", Owner{ID: "P1"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 100}); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}

	m.ClearLock("file-a", Owner{ID: "P1"}, 0, 100)

	blocker := m.GetLock("file-a", Owner{ID: "P2"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 100})
	if blocker.Type != Unlock {
		t.Fatalf("expected the handle free after release, got %+v", blocker)
	}
}

// TestManager_DeadlockAcrossTwoFiles pins the reason the wait registry
// belongs to the manager rather than each FileLocks: a cycle can span two
// different file handles.
func TestManager_DeadlockAcrossTwoFiles(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	if err := m.SetLock(context.Background(), "file-a", Owner{ID: "P1"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10}); err != nil {
		t.Fatalf("P1 lock on file-a failed: %v", err)
	}
	if err := m.SetLock(context.Background(), "file-b", Owner{ID: "P2"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10}); err != nil {
		t.Fatalf("P2 lock on file-b failed: %v", err)
	}

	p2Done := make(chan error, 1)
	go func() {
		p2Done <- m.SetLock(context.Background(), "file-a", Owner{ID: "P2"}, POSIX|Wait, Flock{Type: Exclusive, Start: 0, Len: 10})
	}()
	time.Sleep(20 * time.Millisecond)

	err := m.SetLock(context.Background(), "file-b", Owner{ID: "P1"}, POSIX|Wait, Flock{Type: Exclusive, Start: 0, Len: 10})
	lerr, ok := err.(*LockError)
	if !ok || lerr.Code != CodeDeadlock {
		t.Fatalf("expected cross-file CodeDeadlock, got %v", err)
	}

	m.ClearLock("file-a", Owner{ID: "P1"}, 0, 10)
	<-p2Done
}

func TestManager_ReleaseHandleDropsBookkeeping(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	if err := m.SetLock(context.Background(), "file-a", Owner{ID: "P1"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10}); err != nil {
		t.Fatalf("SetLock failed: %v", err)
	}

	m.ReleaseHandle("file-a")

	// A fresh FileLocks is created on next use; the old state is gone.
	blocker := m.GetLock("file-a", Owner{ID: "P2"}, POSIX, Flock{Type: Exclusive, Start: 0, Len: 10})
	if blocker.Type != Unlock {
		t.Fatalf("expected a clean slate after ReleaseHandle, got %+v", blocker)
	}
}
