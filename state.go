package reveal

// SessionState is the lifecycle state of one streaming session.
type SessionState int

const (
	StateIdle      SessionState = iota // No session, or before Start.
	StateStreaming                     // Producer running, scheduler revealing.
	StateDraining                      // Producer done, scheduler catching up.
	StateCompleted                     // Full reply revealed.
	StateStopped                       // Stopped by the user; revealed prefix kept.
	StateFailed                        // Producer failed; failure message shown.
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateStreaming: "streaming",
	StateDraining:  "draining",
	StateCompleted: "completed",
	StateStopped:   "stopped",
	StateFailed:    "failed",
}

// String returns the lowercase state name.
func (s SessionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Active reports whether the session is Streaming or Draining.
func (s SessionState) Active() bool {
	return s == StateStreaming || s == StateDraining
}

// Terminal reports whether the session has ended.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateStopped || s == StateFailed
}
