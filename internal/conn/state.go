package conn

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Transition is delivered to listeners on every state change.
type Transition struct {
	From, To State
	Gen      uint64
	Err      error
}
