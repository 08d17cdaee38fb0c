// Package todo holds the task model, its JSON file repository and the Store
// that owns the live task collection.
package todo

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a single to-do entry.
//
// Invariants, enforced by the mutating methods:
//   - a completed task is never pinned
//   - CompletedAt is non-nil iff IsCompleted
//   - ID never changes once assigned
//
// The JSON field names match the task list file format.
type Task struct {
	ID          string     `json:"Id"`
	Text        string     `json:"Text"`
	IsCompleted bool       `json:"IsCompleted"`
	IsPinned    bool       `json:"IsPinned"`
	CreatedAt   time.Time  `json:"CreatedAt"`
	CompletedAt *time.Time `json:"CompletedAt"`
}

// Property names reported in change events.
const (
	PropText        = "Text"
	PropIsCompleted = "IsCompleted"
	PropIsPinned    = "IsPinned"
)

// NewID returns a fresh random task id.
func NewID() string {
	return uuid.NewString()
}

// hasID reports whether the task carries a usable id. The all-zero UUID
// counts as missing.
func (t *Task) hasID() bool {
	id := strings.TrimSpace(t.ID)

	return id != "" && id != uuid.Nil.String()
}

// setText replaces the text. Reports whether anything changed.
func (t *Task) setText(text string) bool {
	if t.Text == text {
		return false
	}

	t.Text = text

	return true
}

// setCompleted marks the task completed or pending.
//
// Completing clears the pin and stamps CompletedAt with now; reopening clears
// CompletedAt. Returns the properties that changed, in notification order.
func (t *Task) setCompleted(completed bool, now time.Time) []string {
	if t.IsCompleted == completed {
		return nil
	}

	var changed []string

	t.IsCompleted = completed

	if completed {
		if t.IsPinned {
			t.IsPinned = false
			changed = append(changed, PropIsPinned)
		}

		stamp := now
		t.CompletedAt = &stamp
	} else {
		t.CompletedAt = nil
	}

	return append(changed, PropIsCompleted)
}

// setPinned pins or unpins the task. Pinning a completed task is refused and
// leaves it unpinned. Reports whether anything changed.
func (t *Task) setPinned(pinned bool) bool {
	if pinned && t.IsCompleted {
		return false
	}

	if t.IsPinned == pinned {
		return false
	}

	t.IsPinned = pinned

	return true
}

// repair fixes a task read from disk so it satisfies the invariants.
// Reports whether anything was changed.
func (t *Task) repair(now time.Time) bool {
	repaired := false

	if !t.hasID() {
		t.ID = NewID()
		repaired = true
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
		repaired = true
	}

	if t.IsCompleted && t.IsPinned {
		t.IsPinned = false
		repaired = true
	}

	if t.IsCompleted && t.CompletedAt == nil {
		stamp := now
		t.CompletedAt = &stamp
		repaired = true
	}

	if !t.IsCompleted && t.CompletedAt != nil {
		t.CompletedAt = nil
		repaired = true
	}

	return repaired
}

// cloneTask returns a deep copy so callers never share CompletedAt.
func cloneTask(t Task) Task {
	if t.CompletedAt != nil {
		stamp := *t.CompletedAt
		t.CompletedAt = &stamp
	}

	return t
}

// UnmarshalJSON decodes a task leniently: a CreatedAt or CompletedAt value
// that is not a valid timestamp is treated as unset instead of failing the
// whole file. Store.Load repairs the resulting gaps.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"Id"`
		Text        string          `json:"Text"`
		IsCompleted bool            `json:"IsCompleted"`
		IsPinned    bool            `json:"IsPinned"`
		CreatedAt   json.RawMessage `json:"CreatedAt"`
		CompletedAt json.RawMessage `json:"CompletedAt"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Task{
		ID:          raw.ID,
		Text:        raw.Text,
		IsCompleted: raw.IsCompleted,
		IsPinned:    raw.IsPinned,
	}

	if ts, ok := parseTimestamp(raw.CreatedAt); ok {
		t.CreatedAt = ts
	}

	if ts, ok := parseTimestamp(raw.CompletedAt); ok {
		t.CompletedAt = &ts
	}

	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	var ts time.Time
	if err := json.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, false
	}

	return ts, !ts.IsZero()
}
