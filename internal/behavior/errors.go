package behavior

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralViolation is returned when a child-arity contract is broken.
	ErrStructuralViolation = errors.New("structural violation")
	// ErrUnknownNodeType is returned when a description names an unregistered type.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrMalformedDescription is returned when a description does not match the grammar.
	ErrMalformedDescription = errors.New("malformed description")
)

// ActionError reports a failure raised by an Action while a tree was ticking.
type ActionError struct {
	Phase  string
	Action string
	ID     int
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s#%d %s: %v", e.Action, e.ID, e.Phase, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

func wrapAction(phase string, a Action, err error) error {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return err
	}
	return &ActionError{Phase: phase, Action: a.Name(), ID: a.ID(), Err: err}
}

func structural(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralViolation, fmt.Sprintf(format, args...))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDescription, fmt.Sprintf(format, args...))
}
