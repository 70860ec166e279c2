package behavior

// Terminal names accepted as bare strings by every registry.
const (
	NameSuccess = "success"
	NameFailure = "failure"
	NameRunning = "running"
)

// ConstantAction always reports the same state.
type ConstantAction struct {
	BaseAction
	name  string
	state State
}

func NewConstantAction(name string, state State) *ConstantAction {
	return &ConstantAction{name: name, state: state}
}

func (c *ConstantAction) Name() string { return c.name }

func (c *ConstantAction) Modify(*Actor, State) (State, error) { return c.state, nil }

func constant(name string, state State) Factory {
	return func() Action { return NewConstantAction(name, state) }
}
