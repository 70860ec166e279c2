package behavior

// ActionNode is a leaf that delegates every lifecycle call to its Action.
type ActionNode struct {
	action Action
}

func NewActionNode(action Action) *ActionNode {
	return &ActionNode{action: action}
}

func (n *ActionNode) Action() Action { return n.action }

func (n *ActionNode) Name() string { return n.action.Name() }

func (n *ActionNode) Construct(actor *Actor) error {
	return wrapAction("construct", n.action, n.action.Construct(actor))
}

func (n *ActionNode) Execute(actor *Actor) (State, error) {
	st, err := n.action.Modify(actor, StateUndefined)
	if err != nil {
		return StateUndefined, wrapAction("modify", n.action, err)
	}
	return st, nil
}

func (n *ActionNode) Destruct(actor *Actor) error {
	return wrapAction("destruct", n.action, n.action.Destruct(actor))
}

func (n *ActionNode) Children() []Node { return nil }

func (n *ActionNode) InsertChild(int, Node) error {
	return structural("leaf %q cannot have children", n.Name())
}

func (n *ActionNode) ReplaceChild(int, Node) error {
	return structural("leaf %q cannot have children", n.Name())
}

func (n *ActionNode) RemoveChild(int) (Node, error) {
	return nil, structural("leaf %q cannot have children", n.Name())
}

func (n *ActionNode) DeepCopy() Node {
	return &ActionNode{action: n.action}
}
