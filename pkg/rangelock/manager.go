package rangelock

import (
	"context"
	"sync"

	"github.com/fileloom/rangelockd/internal/logger"
)

// Manager owns one FileLocks per file handle and the waitRegistry shared
// across all of them, since a wait-for cycle can span two different files
// (Design Notes §9). It is the entry point callers use instead of
// constructing FileLocks directly.
type Manager struct {
	mu    sync.RWMutex
	files map[string]*FileLocks

	reg     *waitRegistry
	cfg     Config
	metrics *Metrics
}

// NewManager creates a lock manager with the given configuration and
// metrics. Pass nil for metrics to disable Prometheus registration (tests
// typically do).
func NewManager(cfg Config, metrics *Metrics) *Manager {
	if cfg.Debug {
		logger.SetLevel("DEBUG")
	}
	return &Manager{
		files:   make(map[string]*FileLocks),
		reg:     newWaitRegistry(),
		cfg:     cfg,
		metrics: metrics,
	}
}

// fileLocks returns the FileLocks for handle, creating it on first use.
func (m *Manager) fileLocks(handle string) *FileLocks {
	m.mu.RLock()
	fl, ok := m.files[handle]
	m.mu.RUnlock()
	if ok {
		return fl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fl, ok = m.files[handle]; ok {
		return fl
	}
	fl = newFileLocks(handle, m.reg, m.cfg, m.metrics)
	m.files[handle] = fl
	return fl
}

// SetLock acquires a lock on behalf of owner over the named handle, logging
// its outcome the way a caller (NFS LOCK, SMB LockFileEx, fcntl) expects to
// be able to trace.
func (m *Manager) SetLock(ctx context.Context, handle string, owner Owner, flags Flags, fr Flock) error {
	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext("set_lock", handle)
	}
	ctx = logger.WithContext(ctx, lc.WithHolder(string(owner.ID)))

	fl := m.fileLocks(handle)
	err := fl.SetLock(ctx, owner, flags, fr)
	if err != nil {
		logger.DebugCtx(ctx, "set_lock denied",
			"type", fr.Type.String(), "flags", flags.String(), "err", err)
		return err
	}
	logger.DebugCtx(ctx, "set_lock granted", "type", fr.Type.String(), "flags", flags.String())
	return nil
}

// ClearLock releases owner's lock over [start, start+length-1] (length 0
// meaning to EOF) on handle. Releasing a range that owner does not hold,
// or only partially holds, is not an error (spec §4.5).
func (m *Manager) ClearLock(handle string, owner Owner, start, length int64) {
	fl := m.fileLocks(handle)
	fl.ClearLock(owner, start, length)
}

// GetLock reports the first lock that would block a request of the given
// type and flags over fr's range, without acquiring anything.
func (m *Manager) GetLock(handle string, owner Owner, flags Flags, fr Flock) Flock {
	fl := m.fileLocks(handle)
	return fl.GetLock(owner, flags, fr)
}

// ReleaseHandle drops all bookkeeping for a closed file handle. Any
// requests still suspended on it are left to time out via their own
// context rather than force-woken, mirroring close(2)'s lack of an
// explicit "wake everyone" step; in practice a caller closes a handle only
// once nothing else references it.
func (m *Manager) ReleaseHandle(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, handle)
}
