package gift_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"giftnest/internal/gift"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := gift.NewKeyedMutex()

	const workers = 32
	var inCritical atomic.Int32
	var maxSeen atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("same")
			defer km.Unlock("same")

			n := inCritical.Add(1)
			if old := maxSeen.Load(); n > old {
				maxSeen.Store(n)
			}
			inCritical.Add(-1)
		}()
	}
	wg.Wait()

	if maxSeen.Load() > 1 {
		t.Errorf("saw %d goroutines inside the same-key critical section, want at most 1", maxSeen.Load())
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	km := gift.NewKeyedMutex()

	km.Lock("a")
	defer km.Unlock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	// Must complete while "a" is still held.
	<-done
}

func TestKeyedMutexUnlockOfUnheldKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unlock of unheld key")
		}
	}()

	gift.NewKeyedMutex().Unlock("never locked")
}
