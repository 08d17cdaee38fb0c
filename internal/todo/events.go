package todo

// EventKind classifies a Store change.
type EventKind int

// Event kinds.
const (
	// EventReset means the whole collection was replaced (Load).
	EventReset EventKind = iota + 1
	EventAdded
	EventRemoved
	// EventChanged means one property of an existing task changed; see
	// Event.Property.
	EventChanged
)

func (k EventKind) String() string {
	switch k {
	case EventReset:
		return "reset"
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Event describes one change to the Store. Task is a snapshot taken right
// after the change (for EventRemoved, right before removal). Property is set
// only for EventChanged.
type Event struct {
	Kind     EventKind
	Task     Task
	Property string
}
