package cadence

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	global   atomic.Pointer[Scheduler]
	globalMu sync.Mutex
)

// Init creates the process-wide scheduler and starts its tick loop. A second
// call returns ErrAlreadyInitialized and leaves the running scheduler alone.
func Init(cfg Config, opts ...Option) (*Scheduler, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global.Load() != nil {
		return nil, ErrAlreadyInitialized
	}
	s, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	global.Store(s)
	s.log.Info("global scheduler initialized")
	return s, nil
}

// Default returns the scheduler created by Init, or ErrNotInitialized.
func Default() (*Scheduler, error) {
	s := global.Load()
	if s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

// IsInitialized reports whether Init has succeeded.
func IsInitialized() bool {
	return global.Load() != nil
}

// resetGlobal stops and forgets the global scheduler. Tests only.
func resetGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if s := global.Swap(nil); s != nil {
		s.Stop()
		s.log.Debug("global scheduler reset", zap.Uint64("ticks", s.ticks.Load()))
	}
}
