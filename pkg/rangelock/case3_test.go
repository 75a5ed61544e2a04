package rangelock

import (
	"context"
	"testing"
	"time"
)

// TestSetLock_Case3TransfersWaitersWithoutWaking pins the Design Notes §9
// "optimistic reparenting" decision: when a request from the same holder
// comes to fully contain an existing record of theirs (grantPath's
// caseRequestContains) and the change is not a downgrade, the absorbed
// record's waiters are moved onto the new record's blocked_queue rather
// than woken. Waking them here would be premature — the new, wider record
// is just as likely to still conflict with them — so the fix is recorded
// as deliberate rather than "corrected" to an immediate wake.
func TestSetLock_Case3TransfersWaitersWithoutWaking(t *testing.T) {
	t.Parallel()

	fl := newTestFileLocks()
	mustSet(t, fl, "P1", Shared, POSIX, 0, 49)

	p2Done := make(chan error, 1)
	go func() {
		p2Done <- fl.SetLock(context.Background(), Owner{ID: "P2"}, POSIX|Wait, Flock{Type: Exclusive, Start: 0, Len: 100})
	}()
	time.Sleep(20 * time.Millisecond) // let P2 enqueue on P1's [0,49] entry

	// P1 extends its own shared range to fully contain the entry P2 is
	// queued against. Same type in, same type out: not a downgrade.
	mustSet(t, fl, "P1", Shared, POSIX, 0, 99)

	select {
	case <-p2Done:
		t.Fatal("P2 should not have been woken by P1's same-type self-merge")
	case <-time.After(50 * time.Millisecond):
		// still blocked, as expected
	}

	assertHeld(t, fl.held(), []heldEntry{{"P1", Shared, 0, 99}})

	// Releasing P1's merged lock must still wake P2, proving the waiter
	// moved with the merge instead of being dropped.
	fl.ClearLock(Owner{ID: "P1"}, 0, 100)

	select {
	case err := <-p2Done:
		if err != nil {
			t.Fatalf("P2 should be granted once P1 fully releases, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("P2 was never woken after P1 released the merged lock")
	}
}
