package orchestrator

import "sync"

// taskLocks serializes evaluation per task ID. At most one evaluation may
// be in flight for a given task at any time; different tasks proceed fully
// in parallel. There is no global lock across tasks.
type taskLocks struct {
	mu    sync.Mutex
	locks map[string]*taskLock
}

type taskLock struct {
	mu   sync.Mutex
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[string]*taskLock)}
}

// Acquire blocks until the lock for taskID is held and returns a release
// function. Lock entries are reference-counted so the registry does not
// grow without bound across task IDs.
func (tl *taskLocks) Acquire(taskID string) (release func()) {
	tl.mu.Lock()
	lk, ok := tl.locks[taskID]
	if !ok {
		lk = &taskLock{}
		tl.locks[taskID] = lk
	}
	lk.refs++
	tl.mu.Unlock()

	lk.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lk.mu.Unlock()
			tl.mu.Lock()
			lk.refs--
			if lk.refs == 0 {
				delete(tl.locks, taskID)
			}
			tl.mu.Unlock()
		})
	}
}
