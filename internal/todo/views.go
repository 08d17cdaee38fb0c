package todo

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Tasks returns a snapshot of the collection in storage order (newest added
// first).
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.items))
	for i, item := range s.items {
		out[i] = cloneTask(item)
	}

	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Get returns the task with the exact id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Task{}, false
	}

	return cloneTask(s.items[idx]), true
}

// Resolve finds the task whose id equals or starts with prefix
// (case-insensitive).
func (s *Store) Resolve(prefix string) (Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return Task{}, ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		match Task
		found int
	)

	for _, item := range s.items {
		id := strings.ToLower(item.ID)
		if id == prefix {
			return cloneTask(item), nil
		}

		if strings.HasPrefix(id, prefix) {
			match = item
			found++
		}
	}

	switch found {
	case 0:
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	case 1:
		return cloneTask(match), nil
	default:
		return Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousID, prefix, found)
	}
}

// Pending returns open tasks, pinned first, then newest first.
func (s *Store) Pending() []Task {
	out := s.filter(func(t Task) bool { return !t.IsCompleted })

	slices.SortStableFunc(out, func(a, b Task) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}

			return 1
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

// Completed returns completed tasks, most recently completed first, then
// newest first.
func (s *Store) Completed() []Task {
	out := s.filter(func(t Task) bool { return t.IsCompleted })

	slices.SortStableFunc(out, func(a, b Task) int {
		return cmp.Or(
			completedAt(b).Compare(completedAt(a)),
			b.CreatedAt.Compare(a.CreatedAt),
		)
	})

	return out
}

// Pinned returns the tasks shown on the overlay: pinned and open, newest
// first.
func (s *Store) Pinned() []Task {
	out := s.filter(func(t Task) bool { return t.IsPinned && !t.IsCompleted })

	slices.SortStableFunc(out, func(a, b Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

// CompletedCount returns the number of completed tasks.
func (s *Store) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, item := range s.items {
		if item.IsCompleted {
			n++
		}
	}

	return n
}

func (s *Store) filter(keep func(Task) bool) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.items))

	for _, item := range s.items {
		if keep(item) {
			out = append(out, cloneTask(item))
		}
	}

	return out
}

func completedAt(t Task) time.Time {
	if t.CompletedAt == nil {
		return time.Time{}
	}

	return *t.CompletedAt
}
