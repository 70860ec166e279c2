package behavior

// Node is one vertex of an executable tree. A node activation is constructed
// once, executed while it reports StateRunning and destructed exactly once,
// either after it finishes or when its parent abandons it.
type Node interface {
	Name() string

	Construct(actor *Actor) error
	Execute(actor *Actor) (State, error)
	Destruct(actor *Actor) error

	Children() []Node
	InsertChild(index int, child Node) error
	ReplaceChild(index int, child Node) error
	RemoveChild(index int) (Node, error)

	// DeepCopy clones the node graph. Actions are shared, activation state
	// is copied.
	DeepCopy() Node
}

// Visit walks the tree rooted at n in pre-order. Returning false from fn
// skips the children of the visited node.
func Visit(n Node, fn func(n Node, depth int) bool) {
	visit(n, 0, fn)
}

func visit(n Node, depth int, fn func(Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children() {
		visit(c, depth+1, fn)
	}
}

// Actions returns every action in the tree in id-assignment order.
func Actions(root Node) []Action {
	var out []Action
	Visit(root, func(n Node, _ int) bool {
		switch t := n.(type) {
		case *ActionNode:
			out = append(out, t.action)
		case *DecoratorNode:
			if t.action != nil {
				out = append(out, t.action)
			}
		case *DelegateNode:
			out = append(out, Actions(t.delegate)...)
			return false
		}
		return true
	})
	return out
}
