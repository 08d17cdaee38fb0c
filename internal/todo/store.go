package todo

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/todowork/internal/debounce"
)

// DefaultSaveDelay is the quiet period after the last change before the
// collection is written to disk.
const DefaultSaveDelay = 400 * time.Millisecond

// subscriberBuffer is the channel capacity for [Store.Subscribe].
const subscriberBuffer = 64

// Persister loads and saves the full task list. [Repository] implements it.
type Persister interface {
	Load() []Task
	Save(items []Task) error
}

// StoreOptions configures a Store. Zero values pick production defaults.
type StoreOptions struct {
	SaveDelay time.Duration
	Clock     debounce.Clock
	Now       func() time.Time
	Logger    *log.Logger
}

// Store owns the live task collection.
//
// Every change goes through a Store method. Each change publishes an [Event]
// to observers and restarts the save debounce; once the collection has been
// quiet for SaveDelay it is written through the Persister. Bursts of edits
// therefore cost one disk write. Call [Store.Save] at shutdown to persist a
// pending window.
//
// Store is safe for concurrent use. Observers run on the goroutine that made
// the change, after the Store's lock is released.
type Store struct {
	mu        sync.Mutex
	repo      Persister
	items     []Task
	timer     *debounce.Timer
	logger    *log.Logger
	now       func() time.Time
	observers map[int]func(Event)
	subs      map[int]chan Event
	nextObs   int
	closed    bool

	saveMu sync.Mutex
}

// NewStore returns an empty Store backed by repo. Call [Store.Load] to read
// the persisted tasks.
func NewStore(repo Persister, opts StoreOptions) *Store {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Store{
		repo:      repo,
		items:     []Task{},
		logger:    opts.Logger,
		now:       opts.Now,
		observers: make(map[int]func(Event)),
		subs:      make(map[int]chan Event),
	}

	s.timer = debounce.New(opts.SaveDelay, opts.Clock, s.debouncedSave)

	return s
}

// Load replaces the collection with the persisted tasks.
//
// Tasks with a missing id or creation time get fresh values, and flag
// combinations that break the task invariants are repaired. Load does not
// schedule a save.
func (s *Store) Load() {
	loaded := s.repo.Load()
	now := s.now()

	items := make([]Task, 0, len(loaded))
	seen := make(map[string]bool, len(loaded))
	repaired := 0

	for _, item := range loaded {
		if item.repair(now) {
			repaired++
		}

		if seen[item.ID] {
			item.ID = NewID()
			repaired++
		}

		seen[item.ID] = true
		items = append(items, item)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	if repaired > 0 {
		s.logger.Info("repaired loaded tasks", "count", repaired)
	}

	s.publish([]Event{{Kind: EventReset}})
}

// Add creates a task from text and inserts it at the front.
//
// Blank or whitespace-only text is rejected: Add returns false and changes
// nothing. Otherwise the text is trimmed and the new task is returned.
// Invalid UTF-8 is replaced with U+FFFD, as the JSON encoder would on save.
func (s *Store) Add(text string) (Task, bool) {
	text = cleanText(text)
	if text == "" {
		return Task{}, false
	}

	task := Task{
		ID:        NewID(),
		Text:      text,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.items = append([]Task{task}, s.items...)
	s.mu.Unlock()

	s.changed(Event{Kind: EventAdded, Task: task})

	return task, true
}

// Remove deletes the task with the given id. Unknown ids are a no-op.
// Reports whether a task was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()

		return false
	}

	removed := cloneTask(s.items[idx])
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	s.changed(Event{Kind: EventRemoved, Task: removed})

	return true
}

// ClearCompleted removes every completed task. Returns how many were removed.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()

	kept := s.items[:0:0]

	var events []Event

	for _, item := range s.items {
		if item.IsCompleted {
			events = append(events, Event{Kind: EventRemoved, Task: cloneTask(item)})

			continue
		}

		kept = append(kept, item)
	}

	s.items = kept
	s.mu.Unlock()

	s.changed(events...)

	return len(events)
}

// SetText replaces a task's text. The text is trimmed and must not be blank.
// Reports whether the text changed.
func (s *Store) SetText(id, text string) (bool, error) {
	text = cleanText(text)
	if text == "" {
		return false, ErrTextRequired
	}

	return s.mutate(id, func(t *Task) []string {
		if t.setText(text) {
			return []string{PropText}
		}

		return nil
	})
}

// SetCompleted completes or reopens a task. Completing a pinned task unpins
// it. Reports whether anything changed.
func (s *Store) SetCompleted(id string, completed bool) (bool, error) {
	now := s.now()

	return s.mutate(id, func(t *Task) []string {
		return t.setCompleted(completed, now)
	})
}

// SetPinned pins or unpins a task. Pinning a completed task leaves it
// unpinned and reports false.
func (s *Store) SetPinned(id string, pinned bool) (bool, error) {
	return s.mutate(id, func(t *Task) []string {
		if t.setPinned(pinned) {
			return []string{PropIsPinned}
		}

		return nil
	})
}

// Save persists the collection immediately, cancelling any pending debounced
// save.
func (s *Store) Save() error {
	s.timer.Cancel()

	return s.persist()
}

// Close stops the debounce timer and detaches all observers, closing
// subscriber channels. A save that was still pending is dropped; call
// [Store.Save] afterwards to keep it. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.timer.Stop()

	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}

	clear(s.observers)
}

// OnChange registers fn to be called for every change. The returned func
// detaches it.
func (s *Store) OnChange(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}

	s.nextObs++
	id := s.nextObs
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.observers, id)
	}
}

// Subscribe returns a channel that receives every change. Events are dropped
// (and logged) when the subscriber falls more than a buffer behind. The
// channel is closed by cancel or [Store.Close].
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if s.closed {
		close(ch)

		return ch, func() {}
	}

	s.nextObs++
	id := s.nextObs
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if sub, ok := s.subs[id]; ok {
			close(sub)
			delete(s.subs, id)
		}
	}
}

// SavePending reports whether a debounced save is scheduled.
func (s *Store) SavePending() bool {
	return s.timer.Pending()
}

// mutate applies fn to the task with id. fn returns the changed properties.
func (s *Store) mutate(id string, fn func(t *Task) []string) (bool, error) {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()

		return false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	props := fn(&s.items[idx])
	snapshot := cloneTask(s.items[idx])
	s.mu.Unlock()

	if len(props) == 0 {
		return false, nil
	}

	events := make([]Event, 0, len(props))
	for _, prop := range props {
		events = append(events, Event{Kind: EventChanged, Task: snapshot, Property: prop})
	}

	s.changed(events...)

	return true, nil
}

// changed schedules a save and notifies observers. A no-op without events.
func (s *Store) changed(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.timer.Arm()
	s.publish(events)
}

func (s *Store) publish(events []Event) {
	s.mu.Lock()

	observers := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}

	for _, ev := range events {
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
				s.logger.Debug("dropping store event for slow subscriber", "kind", ev.Kind)
			}
		}
	}

	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range observers {
			fn(ev)
		}
	}
}

func (s *Store) debouncedSave() {
	if err := s.persist(); err != nil {
		s.logger.Warn("saving tasks failed", "err", err)
	}
}

func (s *Store) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	return s.repo.Save(s.Tasks())
}

// cleanText trims text and makes it valid UTF-8 so the in-memory text
// matches what a save and reload produce.
func cleanText(text string) string {
	return strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}

	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}

	return -1
}
