package rangelock

import (
	"context"

	"github.com/fileloom/rangelockd/internal/logger"
)

// enqueueWaiter appends waiter to blocker's blocked_queue FIFO and points
// waiter.next at the blocker, marking it suspended (spec §4.4 step 5).
func (fl *FileLocks) enqueueWaiter(blocker, waiter lockID) {
	br := fl.arena.get(blocker)
	wr := fl.arena.get(waiter)

	wr.next = blocker
	wr.blockLink = nilLock
	if wr.wake == nil {
		wr.wake = make(chan struct{})
	}

	if br.blockHead == nilLock {
		br.blockHead = waiter
		br.blockTail = waiter
	} else {
		fl.arena.get(br.blockTail).blockLink = waiter
		br.blockTail = waiter
	}
}

// dequeueWaiter splices waiter out of blocker's blocked_queue, used when a
// suspended sleep is interrupted by context cancellation rather than woken
// by release (spec §5, Suspension and cancellation).
func (fl *FileLocks) dequeueWaiter(blocker, waiter lockID) {
	br := fl.arena.get(blocker)

	if br.blockHead == waiter {
		br.blockHead = fl.arena.get(waiter).blockLink
		if br.blockHead == nilLock {
			br.blockTail = nilLock
		}
		return
	}

	cur := br.blockHead
	for cur != nilLock {
		cr := fl.arena.get(cur)
		if cr.blockLink == waiter {
			cr.blockLink = fl.arena.get(waiter).blockLink
			if br.blockTail == waiter {
				br.blockTail = cur
			}
			return
		}
		cur = cr.blockLink
	}
}

// wake drains listhead's blocked_queue FIFO, clearing each waiter's next
// pointer (it is no longer blocked by anyone) and closing its wake channel
// so its goroutine re-runs set_lock from the top (spec §4.7).
func (fl *FileLocks) wake(listhead lockID) {
	rec := fl.arena.get(listhead)
	cur := rec.blockHead
	rec.blockHead = nilLock
	rec.blockTail = nilLock

	woken := 0
	for cur != nilLock {
		wr := fl.arena.get(cur)
		next := wr.blockLink
		wr.blockLink = nilLock
		wr.next = nilLock
		fl.clearWait(wr.holder)
		close(wr.wake)
		cur = next
		woken++
	}
	if woken > 0 {
		logger.Debug("waiters woken", logger.Handle(fl.handle), logger.Waiters(woken))
	}
}

// park suspends the caller until either wake is closed (granted a retry)
// or ctx is done (signal-equivalent interruption), mirroring the source's
// sleep-with-signal-catching primitive (Design Notes §9, "Blocking-sleep
// abstraction"). It must be called without the node's lock held.
func park(ctx context.Context, wake <-chan struct{}) error {
	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
