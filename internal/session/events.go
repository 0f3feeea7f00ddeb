package session

// EventKind identifies a lifecycle signal delivered to the manager.
type EventKind int

const (
	EventVisible EventKind = iota + 1
	EventFocus
	EventStorage
	EventBeforeUnload
	EventLoad
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventVisible:
		return "visible"
	case EventFocus:
		return "focus"
	case EventStorage:
		return "storage"
	case EventBeforeUnload:
		return "beforeunload"
	case EventLoad:
		return "load"
	case EventLogout:
		return "logout"
	}
	return "unknown"
}

// Event is one signal. For EventStorage, an empty Key means the whole
// storage was cleared and an empty NewValue means Key was removed.
type Event struct {
	Kind     EventKind
	Key      string
	NewValue string
}

// State is the manager's view of the local session.
type State int32

const (
	StateUnknown State = iota
	StateValid
	StateInvalidating
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateValid:
		return "valid"
	case StateInvalidating:
		return "invalidating"
	case StateInvalid:
		return "invalid"
	}
	return "state(?)"
}
