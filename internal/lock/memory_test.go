package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerMutualExclusion(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	const workers = 32
	var inCritical, maxInCritical, counter int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "tenant-a", "2026-09-01", 5*time.Second, func(ctx context.Context) error {
				mu.Lock()
				inCritical++
				if inCritical > maxInCritical {
					maxInCritical = inCritical
				}
				mu.Unlock()

				counter++ // protected by the lock, not by mu

				mu.Lock()
				inCritical--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "two workers entered the critical section")
	assert.Equal(t, workers, counter)
}

func TestMemoryManagerTimeout(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	holderReady := make(chan struct{})
	holderDone := make(chan struct{})

	go func() {
		_ = m.WithLock(ctx, "tenant-a", "2026-09-01", time.Second, func(ctx context.Context) error {
			close(holderReady)
			<-holderDone
			return nil
		})
	}()

	<-holderReady
	err := m.WithLock(ctx, "tenant-a", "2026-09-01", 50*time.Millisecond, func(ctx context.Context) error {
		t.Fatal("acquired a lock that should be held")
		return nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	close(holderDone)
}

func TestMemoryManagerDifferentKeysDoNotContend(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	release := make(chan struct{})
	acquired := make(chan struct{})

	go func() {
		_ = m.WithLock(ctx, "tenant-a", "2026-09-01", time.Second, func(ctx context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired

	// Same key, different tenant: no contention.
	err := m.WithLock(ctx, "tenant-b", "2026-09-01", 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	// Same tenant, different key: no contention.
	err = m.WithLock(ctx, "tenant-a", "2026-09-02", 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	close(release)
}

func TestMemoryManagerReleasesOnError(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithLock(ctx, "tenant-a", "k", time.Second, func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The failed call must have released the lock.
	err = m.WithLock(ctx, "tenant-a", "k", 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestKeySeparatorPreventsConcatenationCollisions(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
}
