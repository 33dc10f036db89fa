package composition

// PlayState is the transport state of one composition player.
type PlayState int

const (
	// Stopped is the initial and terminal state.
	Stopped PlayState = iota
	// Loading means the graph is being built.
	Loading
	// Loaded means the graph is built and ready to start.
	Loaded
	// Playing means the graph or the designer project is running.
	Playing
	// Paused means playback is frozen but the graph is kept.
	Paused
	// Stopping is the intermediate state while tearing down.
	Stopping
)

var playStateNames = map[PlayState]string{
	Stopped:  "stopped",
	Loading:  "loading",
	Loaded:   "loaded",
	Playing:  "playing",
	Paused:   "paused",
	Stopping: "stopping",
}

func (s PlayState) String() string {
	if name, ok := playStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the state by name for transport broadcasts.
func (s PlayState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
