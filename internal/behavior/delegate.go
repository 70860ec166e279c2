package behavior

// DelegateNode forwards every call to the node it wraps. Hosts use it to
// keep a stable handle on a subtree whose implementation may be swapped.
type DelegateNode struct {
	delegate Node
}

func NewDelegateNode(delegate Node) *DelegateNode {
	return &DelegateNode{delegate: delegate}
}

func (n *DelegateNode) Delegate() Node { return n.delegate }

// SetDelegate replaces the wrapped node. It must not be called while the
// current delegate is active.
func (n *DelegateNode) SetDelegate(delegate Node) { n.delegate = delegate }

func (n *DelegateNode) Name() string { return n.delegate.Name() }

func (n *DelegateNode) Construct(actor *Actor) error { return n.delegate.Construct(actor) }

func (n *DelegateNode) Execute(actor *Actor) (State, error) { return n.delegate.Execute(actor) }

func (n *DelegateNode) Destruct(actor *Actor) error { return n.delegate.Destruct(actor) }

func (n *DelegateNode) Children() []Node { return n.delegate.Children() }

func (n *DelegateNode) InsertChild(index int, child Node) error {
	return n.delegate.InsertChild(index, child)
}

func (n *DelegateNode) ReplaceChild(index int, child Node) error {
	return n.delegate.ReplaceChild(index, child)
}

func (n *DelegateNode) RemoveChild(index int) (Node, error) {
	return n.delegate.RemoveChild(index)
}

func (n *DelegateNode) DeepCopy() Node {
	return &DelegateNode{delegate: n.delegate.DeepCopy()}
}
