package combat

import "time"

// State is the combat phase of one agent
type State int

const (
	StateIdle State = iota
	StateEngaged
	StateFollowing
	StateRecovering
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateEngaged:    "engaged",
	StateFollowing:  "following",
	StateRecovering: "recovering",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Snapshot is a copy of an agent's runtime state
type Snapshot struct {
	Serial         string
	State          State
	LastSeenTarget time.Time
	LastAction     time.Time
	Cycles         int
	Engagements    int
	Respawns       int
	Failures       int
}
