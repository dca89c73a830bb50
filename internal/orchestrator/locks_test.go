package orchestrator

import (
	"sync"
	"testing"
	"time"
)

func TestTaskLocksSerializeSameTask(t *testing.T) {
	locks := newTaskLocks()

	release := locks.Acquire("t1")

	acquired := make(chan struct{})
	go func() {
		r := locks.Acquire("t1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestTaskLocksDifferentTasksIndependent(t *testing.T) {
	locks := newTaskLocks()

	release1 := locks.Acquire("t1")
	defer release1()

	done := make(chan struct{})
	go func() {
		r := locks.Acquire("t2")
		r()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire for a different task blocked")
	}
}

func TestTaskLocksReleaseIsIdempotent(t *testing.T) {
	locks := newTaskLocks()

	release := locks.Acquire("t1")
	release()
	release() // second call must be a no-op

	r := locks.Acquire("t1")
	r()
}

func TestTaskLocksRegistryShrinks(t *testing.T) {
	locks := newTaskLocks()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := locks.Acquire("t1")
			time.Sleep(time.Millisecond)
			r()
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	n := len(locks.locks)
	locks.mu.Unlock()
	if n != 0 {
		t.Errorf("expected empty lock registry after all releases, got %d entries", n)
	}
}
