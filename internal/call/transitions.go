package call

// statusRank orders the lifecycle. A transition is legal only if it moves
// strictly forward; terminal states absorb everything that follows, which is
// what makes duplicate webhook deliveries harmless.
var statusRank = map[Status]int{
	StatusQueued:     0,
	StatusInitiated:  1,
	StatusInProgress: 2,
	StatusCompleted:  3,
	StatusFailed:     3,
	StatusNoAnswer:   3,
}

// IsValid reports whether s is a member of the closed status set.
func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is a legal forward move.
// A terminal state never transitions, including to another terminal state.
func CanTransition(from, to Status) bool {
	rf, okf := statusRank[from]
	rt, okt := statusRank[to]
	if !okf || !okt {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	return rt > rf
}
