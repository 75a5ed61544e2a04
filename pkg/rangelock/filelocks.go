package rangelock

import (
	"context"
	"sync"
	"time"

	"github.com/fileloom/rangelockd/internal/logger"
	"github.com/google/uuid"
)

// FileLocks is the lock list for a single file handle: the data model of
// spec §3 plus the synchronization and bookkeeping needed to serve
// concurrent callers. Every exported method takes fl.mu for its duration;
// park is the only point a caller gives that lock back up while waiting.
type FileLocks struct {
	mu     sync.Mutex
	arena  arena
	head   lockID
	handle string

	reg     *waitRegistry
	cfg     Config
	metrics *Metrics
}

func newFileLocks(handle string, reg *waitRegistry, cfg Config, metrics *Metrics) *FileLocks {
	return &FileLocks{
		head:    nilLock,
		handle:  handle,
		reg:     reg,
		cfg:     cfg,
		metrics: metrics,
	}
}

func (fl *FileLocks) recordWait(holder, blockedOn HolderID) {
	fl.reg.record(holder, blockedOn)
}

func (fl *FileLocks) clearWait(holder HolderID) {
	fl.reg.clear(holder)
}

func isDowngrade(existingTyp, reqTyp LockType) bool {
	return existingTyp == Exclusive && reqTyp == Shared
}

// carve applies splitRange to the existing record at the given id, shrinking
// it in place to whichever single remainder piece reuses its identity (the
// low piece if one exists, otherwise the high piece) and, only when both
// pieces exist, allocating a new record for the high piece (spec §4.3).
// Allocation can grow the arena's backing slice, so callers must re-fetch
// any *lockRecord pointers they're holding once carve returns.
func (fl *FileLocks) carve(existing lockID, subStart, subEnd int64) (hasLow, hasHigh bool, highID, after lockID) {
	rec := fl.arena.get(existing)
	lowEnd, hl, highStart, hh := splitRange(rec.start, rec.end, subStart, subEnd)
	origEnd := rec.end
	typ, flags, holder, pid, next := rec.typ, rec.flags, rec.holder, rec.pid, rec.next
	after = next
	highID = nilLock

	switch {
	case hl && hh:
		rec.end = lowEnd
		highID = fl.arena.alloc(lockRecord{
			id: uuid.New(), typ: typ, flags: flags, start: highStart, end: origEnd,
			holder: holder, pid: pid, next: next,
			blockHead: nilLock, blockTail: nilLock,
		})
	case hl:
		rec.end = lowEnd
	case hh:
		rec.start = highStart
	}
	return hl, hh, highID, after
}

// SetLock implements the acquire operation (spec §4.4): it blocks (subject
// to flags.Wait), detects deadlock, applies the FLOCK upgrade rule, and
// grants via the six-case state machine. ctx governs only a suspended
// wait; it is never consulted once the request is granted.
func (fl *FileLocks) SetLock(ctx context.Context, owner Owner, flags Flags, fr Flock) error {
	start, end := fr.toRange()
	typ := fr.Type

	for {
		fl.mu.Lock()

		blocker := fl.getBlock(owner.ID, typ, start, end)
		if blocker == nilLock {
			id := uuid.New()
			reqID := fl.arena.alloc(lockRecord{
				id: id, typ: typ, flags: flags, start: start, end: end,
				holder: owner.ID, pid: owner.Pid,
				next: nilLock, blockHead: nilLock, blockTail: nilLock,
			})
			fl.grantPath(reqID)
			fl.metrics.observeAcquire(typ, StatusGranted)
			fl.metrics.setActive(typ, 1)
			fl.mu.Unlock()
			logger.DebugCtx(ctx, "lock granted", logger.RequestID(id.String()), logger.Handle(fl.handle),
				logger.HolderID(string(owner.ID)), logger.LockType(typ.String()))
			return nil
		}

		brec := fl.arena.get(blocker)
		blockerHolder, blockerFlags := brec.holder, brec.flags

		if flags&Wait == 0 {
			fl.metrics.observeAcquire(typ, StatusDenied)
			fl.mu.Unlock()
			logger.DebugCtx(ctx, "lock denied", logger.Handle(fl.handle), logger.HolderID(string(owner.ID)),
				logger.BlockedBy(string(blockerHolder)))
			return newWouldBlockError(fl.handle, owner.ID)
		}

		if flags&POSIX != 0 && blockerFlags&POSIX != 0 {
			if found, depth := fl.reg.wouldDeadlock(blockerHolder, owner.ID, fl.cfg.MaxDeadlockDepth); found {
				fl.metrics.observeAcquire(typ, StatusDeadlock)
				fl.metrics.observeDeadlock(depth)
				fl.mu.Unlock()
				logger.DebugCtx(ctx, "lock would deadlock", logger.Handle(fl.handle), logger.HolderID(string(owner.ID)),
					logger.BlockedBy(string(blockerHolder)), logger.ChainDepth(depth))
				return newDeadlockError(fl.handle, owner.ID)
			}
		}

		if flags&FLOCK != 0 && typ == Exclusive {
			fl.clearLockLocked(owner, start, end)
		}

		id := uuid.New()
		reqID := fl.arena.alloc(lockRecord{
			id: id, typ: typ, flags: flags, start: start, end: end,
			holder: owner.ID, pid: owner.Pid,
			next: nilLock, blockHead: nilLock, blockTail: nilLock,
		})
		fl.enqueueWaiter(blocker, reqID)
		fl.recordWait(owner.ID, blockerHolder)
		fl.metrics.setBlocked(1)
		wake := fl.arena.get(reqID).wake
		waitStart := time.Now()
		logger.DebugCtx(ctx, "lock blocked", logger.RequestID(id.String()), logger.Handle(fl.handle),
			logger.HolderID(string(owner.ID)), logger.BlockedBy(string(blockerHolder)))

		fl.mu.Unlock()
		_ = park(ctx, wake)
		fl.mu.Lock()

		fl.metrics.setBlocked(-1)
		rec := fl.arena.get(reqID)
		interrupted := rec.next != nilLock
		if interrupted {
			fl.dequeueWaiter(rec.next, reqID)
			fl.clearWait(owner.ID)
		}
		fl.arena.free(reqID)
		fl.mu.Unlock()

		if interrupted {
			logger.DebugCtx(ctx, "lock wait interrupted", logger.RequestID(id.String()), logger.Handle(fl.handle),
				logger.HolderID(string(owner.ID)))
			return newInterruptedError(fl.handle, owner.ID)
		}
		fl.metrics.observeBlockingDuration(time.Since(waitStart))
		logger.DebugCtx(ctx, "lock woken, retrying", logger.RequestID(id.String()), logger.Handle(fl.handle),
			logger.HolderID(string(owner.ID)), logger.DurationMs(float64(time.Since(waitStart).Microseconds())/1000.0))
		// Woken: retry from the top, since the record that blocked us is
		// already off the blocked queue and may no longer exist.
	}
}

// grantPath runs the six-case state machine of spec §4.4 step 6 against the
// already-allocated request record reqID, splicing it into (or freeing it
// back out of) the held list. fl.mu must be held by the caller.
func (fl *FileLocks) grantPath(reqID lockID) {
	req := fl.arena.get(reqID)
	holder := req.holder
	reqStart, reqEnd := req.start, req.end
	needLink := true

	for {
		oc, prevSlot, match := fl.findOverlap(holder, reqStart, reqEnd, filterSelf, reqID)
		req = fl.arena.get(reqID)

		switch oc {
		case caseDisjoint:
			if needLink {
				req.next = *prevSlot
				*prevSlot = reqID
			}
			return

		case caseEqual:
			mrec := fl.arena.get(match)
			if isDowngrade(mrec.typ, req.typ) {
				fl.wake(match)
			}
			mrec.typ = req.typ
			fl.arena.free(reqID)
			return

		case caseExistingContains:
			mrec := fl.arena.get(match)
			if mrec.typ == req.typ {
				fl.arena.free(reqID)
				return
			}
			hasLow, hasHigh, highID, after := fl.carve(match, req.start, req.end)
			mrec = fl.arena.get(match)
			req = fl.arena.get(reqID)
			switch {
			case hasLow && hasHigh:
				mrec.next = reqID
				req.next = highID
				logger.Debug("existing lock split by grant", logger.Handle(fl.handle),
					logger.HolderID(string(holder)), logger.SplitPieces(2))
			case hasLow:
				mrec.next = reqID
				req.next = after
			case hasHigh:
				*prevSlot = reqID
				req.next = match
			}
			fl.wake(match)
			return

		case caseRequestContains:
			mrec := fl.arena.get(match)
			if isDowngrade(mrec.typ, req.typ) {
				fl.wake(match)
			} else {
				fl.transferWaiters(match, reqID)
			}
			if needLink {
				*prevSlot = reqID
				req.next = mrec.next
				needLink = false
			} else {
				*prevSlot = mrec.next
			}
			fl.arena.free(match)
			continue

		case caseExistingStartsBefore:
			mrec := fl.arena.get(match)
			mrec.end = req.start - 1
			if needLink {
				req.next = mrec.next
				mrec.next = reqID
				needLink = false
			}
			fl.wake(match)
			continue

		case caseExistingStartsInside:
			mrec := fl.arena.get(match)
			mrec.start = req.end + 1
			if needLink {
				*prevSlot = reqID
				req.next = match
				needLink = false
			}
			fl.wake(match)
			return
		}
	}
}

// transferWaiters moves src's entire blocked_queue onto dst's, in FIFO
// order, repointing each transferred waiter at dst and updating its
// waitRegistry entry to match. Used by grantPath's case 3 when the request
// absorbs an existing entry without downgrading it, so the absorbed
// entry's waiters don't simply wake into a renewed conflict with the same,
// still-held, request (spec §4.4 step 6 case 3; Design Notes §9 preserves
// this "optimistic reparenting" rather than tightening it into an
// immediate wake). The registry update happens here, under fl.mu, rather
// than by having a deadlock search re-read the waiter's target live.
func (fl *FileLocks) transferWaiters(src, dst lockID) {
	srec := fl.arena.get(src)
	cur := srec.blockHead
	srec.blockHead, srec.blockTail = nilLock, nilLock
	newBlockedOn := fl.arena.get(dst).holder

	for cur != nilLock {
		wr := fl.arena.get(cur)
		next := wr.blockLink
		wr.next = dst
		wr.blockLink = nilLock
		fl.reg.record(wr.holder, newBlockedOn)

		drec := fl.arena.get(dst)
		if drec.blockHead == nilLock {
			drec.blockHead = cur
			drec.blockTail = cur
		} else {
			fl.arena.get(drec.blockTail).blockLink = cur
			drec.blockTail = cur
		}
		cur = next
	}
}

// ClearLock implements the release operation (spec §4.5) over [start,
// start+length-1] (length 0 meaning to EOF), for locks held by owner.
func (fl *FileLocks) ClearLock(owner Owner, start, length int64) {
	_, end := Flock{Start: start, Len: length}.toRange()

	fl.mu.Lock()
	fl.clearLockLocked(owner, start, end)
	fl.metrics.observeRelease(fl.handle)
	fl.mu.Unlock()

	logger.Debug("lock released", logger.Handle(fl.handle), logger.HolderID(string(owner.ID)))
}

// clearLockLocked runs the five-case release walk of spec §4.5. fl.mu must
// be held by the caller.
func (fl *FileLocks) clearLockLocked(owner Owner, start, end int64) {
	holder := owner.ID

	for {
		oc, prevSlot, match := fl.findOverlap(holder, start, end, filterSelf, nilLock)
		if oc == caseDisjoint {
			return
		}

		fl.wake(match)
		mrec := fl.arena.get(match)

		switch oc {
		case caseEqual:
			*prevSlot = mrec.next
			fl.metrics.setActive(mrec.typ, -1)
			fl.arena.free(match)
			return

		case caseExistingContains:
			hasLow, hasHigh, highID, _ := fl.carve(match, start, end)
			mrec = fl.arena.get(match)
			if hasLow && hasHigh {
				mrec.next = highID
				fl.metrics.setActive(mrec.typ, 1)
			}
			return

		case caseRequestContains:
			*prevSlot = mrec.next
			fl.metrics.setActive(mrec.typ, -1)
			fl.arena.free(match)
			continue

		case caseExistingStartsBefore:
			mrec.end = start - 1
			continue

		case caseExistingStartsInside:
			mrec.start = end + 1
			return
		}
	}
}

// GetLock implements the non-mutating test operation (spec §4.6): it
// reports the first entry that would block a request of the given type and
// flags over fr's range, or an Unlock-typed Flock if none would.
func (fl *FileLocks) GetLock(owner Owner, flags Flags, fr Flock) Flock {
	start, end := fr.toRange()

	fl.mu.Lock()
	defer fl.mu.Unlock()

	blocker := fl.getBlock(owner.ID, fr.Type, start, end)
	if blocker == nilLock {
		return Flock{Type: Unlock}
	}

	brec := fl.arena.get(blocker)
	offset, length := fromRange(brec.start, brec.end)
	pid := brec.pid
	if brec.flags&FLOCK != 0 {
		pid = -1
	}
	return Flock{Type: brec.typ, Start: offset, Len: length, Pid: pid}
}
