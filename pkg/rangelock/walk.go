package rangelock

// filterMode selects which held entries a list walk considers.
type filterMode int

const (
	// filterSelf considers only entries whose holder equals the request's.
	filterSelf filterMode = iota
	// filterOthers considers only entries whose holder differs.
	filterOthers
)

// findOverlap walks the held list starting at head, sorted by start,
// returning the first entry matching filter that overlaps [start,end],
// the overlap case, and a reference to the slot pointing at that entry so
// the caller can splice in place (spec §4.2).
//
// Early-termination optimization: under filterSelf, once an entry's start
// has passed end, no later entry (self or not; the list is globally
// sorted) can overlap, so the walk stops. Under filterOthers it must
// continue to the end of the list.
// exclude, if not nilLock, is skipped even if it would otherwise match —
// used by the grant path once the request record has been spliced into the
// list, so it never overlaps with itself on a later rescan.
func (fl *FileLocks) findOverlap(holder HolderID, start, end int64, filter filterMode, exclude lockID) (oc overlapCase, prevSlot *lockID, match lockID) {
	be := effectiveEnd(end)
	prevSlot = &fl.head
	cur := fl.head

	for cur != nilLock {
		rec := fl.arena.get(cur)

		if filter == filterSelf && rec.start > be {
			break
		}

		isSelf := rec.holder == holder
		wantMatch := (filter == filterSelf) == isSelf && cur != exclude
		if wantMatch {
			if c := classifyOverlap(rec.start, rec.end, start, end); c != caseDisjoint {
				return c, prevSlot, cur
			}
		}

		prevSlot = &rec.next
		cur = rec.next
	}

	return caseDisjoint, prevSlot, nilLock
}

// getBlock returns the first held entry, owned by a different holder, that
// would deny a request of the given type over [start,end]: any EXCLUSIVE
// lock on either side is a blocker; a SHARED request is blocked only by an
// EXCLUSIVE entry; an EXCLUSIVE request is blocked by any overlapping entry
// of another holder (spec §4.4 step 1, §4.6).
func (fl *FileLocks) getBlock(holder HolderID, typ LockType, start, end int64) lockID {
	cur := fl.head
	for cur != nilLock {
		rec := fl.arena.get(cur)
		if rec.holder != holder && classifyOverlap(rec.start, rec.end, start, end) != caseDisjoint {
			if typ == Exclusive || rec.typ == Exclusive {
				return cur
			}
		}
		cur = rec.next
	}
	return nilLock
}
