// Package brain contains the behavioral inference core: the state type, the
// ordered rule table with its hysteresis counters, and the transition feed
// that carries committed state changes to display consumers. The rule
// evaluation is pure given a snapshot and the engine's counters; time enters
// only through an injectable clock.
package brain

// State is the discrete behavioral state driving the companion's visible
// expression.
type State int

const (
	Idle State = iota
	Sniffing
	Tracking
	Learning
	Excited
	Sleeping
	Error
	Updating
)

// String returns the canonical display name. Out-of-range values map to
// "Unknown".
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Sniffing:
		return "Sniffing"
	case Tracking:
		return "Tracking"
	case Learning:
		return "Learning"
	case Excited:
		return "Excited"
	case Sleeping:
		return "Sleeping"
	case Error:
		return "Error"
	case Updating:
		return "Updating"
	default:
		return "Unknown"
	}
}

// Glyph returns the mood glyph for the state. Out-of-range values map to
// the thinking face.
func (s State) Glyph() string {
	switch s {
	case Idle:
		return "😊"
	case Sniffing:
		return "👃"
	case Tracking:
		return "👁️"
	case Learning:
		return "🧠"
	case Excited:
		return "🤩"
	case Sleeping:
		return "😴"
	case Error:
		return "💀"
	case Updating:
		return "🔄"
	default:
		return "🤔"
	}
}

// ParseState maps a display name back to its State. Unrecognized names
// return (0, false).
func ParseState(name string) (State, bool) {
	for s := Idle; s <= Updating; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
