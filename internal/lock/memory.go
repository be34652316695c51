package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryManager implements Manager with in-process keyed mutexes. It provides
// the same contract as PgxManager for tests and single-node deployments where
// all writers share one process. There is no transaction to carry, so fn runs
// with the caller's context unchanged.
type MemoryManager struct {
	mu   sync.Mutex
	held map[int64]chan struct{}
}

// NewMemoryManager creates an in-process lock manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{held: make(map[int64]chan struct{})}
}

func (m *MemoryManager) WithLock(ctx context.Context, tenantID, key string, timeout time.Duration, fn func(ctx context.Context) error) error {
	k := Key(tenantID, key)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		m.mu.Lock()
		waitCh, taken := m.held[k]
		if !taken {
			m.held[k] = make(chan struct{})
			m.mu.Unlock()
			break
		}
		m.mu.Unlock()

		select {
		case <-waitCh:
			// Holder released; race for the lock again.
		case <-deadline.C:
			return ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	defer func() {
		m.mu.Lock()
		releaseCh := m.held[k]
		delete(m.held, k)
		m.mu.Unlock()
		close(releaseCh)
	}()

	return fn(ctx)
}
