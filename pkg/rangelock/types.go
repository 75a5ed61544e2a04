// Package rangelock implements a BSD lockf-style byte-range advisory lock
// manager for a single network filesystem node. It maintains, per file
// handle, an ordered list of held locks and a set of blocked requests
// waiting on them, and exposes the four lockf operations: acquire, release,
// test, and wake.
//
// Import graph: internal/logger <- rangelock <- cmd/rangelockctl
package rangelock

import (
	"math"

	"github.com/google/uuid"
)

// LockType is the kind of byte-range lock.
type LockType int

const (
	// Unlock is used only transiently as an argument to release.
	Unlock LockType = iota
	Shared
	Exclusive
)

func (t LockType) String() string {
	switch t {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	case Unlock:
		return "unlock"
	default:
		return "unknown"
	}
}

// Flags is a bitmask of lock behaviors. POSIX and FLOCK are mutually
// exclusive; Wait means "block if contended".
type Flags uint8

const (
	POSIX Flags = 1 << iota
	FLOCK
	Wait
)

func (f Flags) String() string {
	var parts []byte
	add := func(s string) {
		if len(parts) > 0 {
			parts = append(parts, ',')
		}
		parts = append(parts, s...)
	}
	if f&POSIX != 0 {
		add("posix")
	}
	if f&FLOCK != 0 {
		add("flock")
	}
	if f&Wait != 0 {
		add("wait")
	}
	if len(parts) == 0 {
		return "none"
	}
	return string(parts)
}

// EOF is the sentinel end offset meaning "to end of file", treated as +inf
// in range comparisons.
const EOF int64 = math.MaxInt64

// effectiveEnd resolves the EOF sentinel for arithmetic comparisons.
func effectiveEnd(end int64) int64 {
	return end
}

// nextOffset returns end+1, the start of whatever lies just past end. Only
// ever called where end is known not to be EOF.
func nextOffset(end int64) int64 {
	return end + 1
}

// HolderID is the opaque identity of a lock's owner: a process for POSIX
// locks, an open file description for FLOCK locks. The core never parses
// it, only compares it for equality.
type HolderID string

// Owner identifies the requester of a lock operation.
type Owner struct {
	ID HolderID
	// Pid is the POSIX process id, used only for reporting via GetLock.
	// Unused (and reported as -1) for FLOCK holders.
	Pid int64
}

// Flock is the public lock descriptor exchanged with the outer filesystem,
// shaped after the fcntl(2) struct flock.
type Flock struct {
	Type  LockType
	Start int64
	Len   int64 // 0 means "to EOF"
	Pid   int64 // POSIX holders only; -1 if unknown
}

// toRange translates the wire Len=0-means-EOF convention into an internal
// inclusive [start,end] pair.
func (f Flock) toRange() (start, end int64) {
	start = f.Start
	if f.Len == 0 {
		end = EOF
	} else {
		end = f.Start + f.Len - 1
	}
	return
}

// fromRange is the inverse of toRange, used when reporting a blocker back
// to the caller.
func fromRange(start, end int64) (offset, length int64) {
	if end == EOF {
		return start, 0
	}
	return start, end - start + 1
}

// lockID is an arena index, standing in for the source's raw pointer. -1
// represents the null reference.
type lockID int32

const nilLock lockID = -1

// lockRecord is the sole entity in the data model (spec §3).
type lockRecord struct {
	// id correlates this record across log lines for its lifetime; it has
	// no role in the algorithm itself, mirroring UnifiedLock.ID in the
	// teacher's unified lock manager.
	id     uuid.UUID
	typ    LockType
	flags  Flags
	start  int64
	end    int64
	holder HolderID
	pid    int64

	// next is the link in the sorted held list; while this record is
	// suspended, next instead points at the lock currently blocking it.
	next lockID

	// blockHead/blockTail form the FIFO of other records suspended
	// waiting on this one (blocked_queue).
	blockHead lockID
	blockTail lockID

	// blockLink is this record's link within whatever blocked_queue it
	// currently sits on.
	blockLink lockID

	// wake is closed exactly once to signal a suspended requester that it
	// should re-run set_lock from the top. nil for records that were
	// never enqueued as a waiter.
	wake chan struct{}

	// free marks an arena slot as reusable.
	free bool
}

// arena is the index-based handle table (with a free list, no generation
// counters) backing a node's
// lock list (Design Notes §9, option (b)): every cross-reference is a plain
// index rather than a pointer, so splicing never risks aliasing.
type arena struct {
	records  []lockRecord
	freelist []lockID
}

func (a *arena) alloc(rec lockRecord) lockID {
	rec.free = false
	if n := len(a.freelist); n > 0 {
		id := a.freelist[n-1]
		a.freelist = a.freelist[:n-1]
		a.records[id] = rec
		return id
	}
	a.records = append(a.records, rec)
	return lockID(len(a.records) - 1)
}

func (a *arena) free(id lockID) {
	if id == nilLock {
		return
	}
	r := &a.records[id]
	if r.free {
		invariantf("rangelock: double free of lock record")
	}
	*r = lockRecord{free: true}
	a.freelist = append(a.freelist, id)
}

func (a *arena) get(id lockID) *lockRecord {
	if id == nilLock {
		return nil
	}
	r := &a.records[id]
	if r.free {
		invariantf("rangelock: use of freed lock record")
	}
	return r
}
