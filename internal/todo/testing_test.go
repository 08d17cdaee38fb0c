package todo_test

import (
	"sync"
	"testing"

	"github.com/calvinalkan/todowork/internal/debounce"
	"github.com/calvinalkan/todowork/internal/todo"
)

// memRepo is an in-memory Persister that records every save.
type memRepo struct {
	mu      sync.Mutex
	initial []todo.Task
	saves   [][]todo.Task
	saveErr error
}

func (r *memRepo) Load() []todo.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]todo.Task(nil), r.initial...)
}

func (r *memRepo) Save(items []todo.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves = append(r.saves, items)

	return r.saveErr
}

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.saves)
}

func (r *memRepo) lastSave() []todo.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.saves) == 0 {
		return nil
	}

	return r.saves[len(r.saves)-1]
}

func newTestStore(t *testing.T, repo *memRepo) (*todo.Store, *debounce.FakeClock) {
	t.Helper()

	clock := debounce.NewFakeClock()
	store := todo.NewStore(repo, todo.StoreOptions{
		Clock: clock,
		Now:   clock.Now,
	})
	t.Cleanup(store.Close)

	store.Load()

	return store, clock
}
