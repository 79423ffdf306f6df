package auth

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAwaitingConnection
	StateProofPending
	StateVerifying
	StateVerified
	StateFailed
	StateClosed
)

var stateNames = map[State]string{
	StateUninitialized:      "uninitialized",
	StateInitializing:       "initializing",
	StateAwaitingConnection: "awaiting_connection",
	StateProofPending:       "proof_pending",
	StateVerifying:          "verifying",
	StateVerified:           "verified",
	StateFailed:             "failed",
	StateClosed:             "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Open reports whether the panel is showing and the handshake is live.
func (s State) Open() bool {
	return s != StateUninitialized && s != StateClosed
}

// Subscribed reports whether status events are meaningful in this state.
func (s State) Subscribed() bool {
	return s.Open() && s != StateInitializing
}
