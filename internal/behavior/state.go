package behavior

import (
	"fmt"
	"strings"
)

// State is the result of ticking a node.
type State int

const (
	StateUndefined State = iota
	StateSuccess
	StateFailure
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "SUCCESS"
	case StateFailure:
		return "FAILURE"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNDEFINED"
	}
}

// Done reports whether s terminates an activation.
func (s State) Done() bool {
	return s == StateSuccess || s == StateFailure
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseState accepts the names produced by String, case-insensitively.
func ParseState(raw string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS":
		return StateSuccess, nil
	case "FAILURE":
		return StateFailure, nil
	case "RUNNING":
		return StateRunning, nil
	case "UNDEFINED", "":
		return StateUndefined, nil
	default:
		return StateUndefined, fmt.Errorf("unknown state %q", raw)
	}
}
