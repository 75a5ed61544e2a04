package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // caller-supplied trace ID for request correlation
	KeySpanID  = "span_id"  // caller-supplied span ID for operation tracking

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOperation  = "operation"   // set_lock, clear_lock, get_lock, get_block
	KeyHandle     = "handle"      // opaque file handle a lock operation targets
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // numeric/symbolic error code
	KeySource     = "source"      // originating component
	KeyRequestID  = "request_id"  // caller-supplied request identifier

	// ========================================================================
	// Lock Fields
	// ========================================================================
	KeyLockType    = "lock_type"    // shared, exclusive, unlock
	KeyLockFlags   = "lock_flags"   // posix, flock, wait (comma-joined)
	KeyLockStart   = "lock_start"   // byte-range start
	KeyLockLen     = "lock_len"     // byte-range length (0 means to EOF)
	KeyHolderID    = "holder_id"    // lock holder identity (pid/owner token)
	KeyBlockedBy   = "blocked_by"   // holder ID of the conflicting lock
	KeyWaiters     = "waiters"      // number of queued waiters for a file
	KeyChainDepth  = "chain_depth"  // depth reached while walking a wait-for chain
	KeySplitPieces = "split_pieces" // number of lock pieces produced by a split
)

// TraceID returns a slog.Attr for the trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the lock operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Handle returns a slog.Attr for the file handle a lock targets
func Handle(h string) slog.Attr {
	return slog.String(KeyHandle, h)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a symbolic error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Source returns a slog.Attr for the originating component
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// RequestID returns a slog.Attr for a caller-supplied request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// LockType returns a slog.Attr for lock type
func LockType(t string) slog.Attr {
	return slog.String(KeyLockType, t)
}

// LockFlags returns a slog.Attr for the lock's flag set
func LockFlags(f string) slog.Attr {
	return slog.String(KeyLockFlags, f)
}

// LockStart returns a slog.Attr for lock range start
func LockStart(off uint64) slog.Attr {
	return slog.Uint64(KeyLockStart, off)
}

// LockLen returns a slog.Attr for lock range length
func LockLen(n uint64) slog.Attr {
	return slog.Uint64(KeyLockLen, n)
}

// HolderID returns a slog.Attr for the lock holder identity
func HolderID(id string) slog.Attr {
	return slog.String(KeyHolderID, id)
}

// BlockedBy returns a slog.Attr for the conflicting holder's identity
func BlockedBy(id string) slog.Attr {
	return slog.String(KeyBlockedBy, id)
}

// Waiters returns a slog.Attr for the number of queued waiters
func Waiters(n int) slog.Attr {
	return slog.Int(KeyWaiters, n)
}

// ChainDepth returns a slog.Attr for the depth reached walking a wait-for chain
func ChainDepth(n int) slog.Attr {
	return slog.Int(KeyChainDepth, n)
}

// SplitPieces returns a slog.Attr for the number of pieces produced by a split
func SplitPieces(n int) slog.Attr {
	return slog.Int(KeySplitPieces, n)
}
