package behavior

import "errors"

// DecoratorNode wraps at most one child. The optional action gates the child
// through Prune and rewrites its result through Modify. A modified result
// that ends the activation while the child is still running destructs the
// child early.
type DecoratorNode struct {
	action      Action
	child       Node
	lastState   State
	childActive bool
	// constructed is set once the action's Construct succeeded.
	constructed bool
}

// NewDecoratorNode creates a decorator; action and child may both be nil.
func NewDecoratorNode(action Action, child Node) *DecoratorNode {
	return &DecoratorNode{action: action, child: child}
}

func (d *DecoratorNode) Action() Action { return d.action }

func (d *DecoratorNode) Child() Node { return d.child }

// LastState is the most recent result reported by the child.
func (d *DecoratorNode) LastState() State { return d.lastState }

func (d *DecoratorNode) Name() string {
	if d.action == nil {
		return "decorator"
	}
	return d.action.Name()
}

func (d *DecoratorNode) Construct(actor *Actor) error {
	d.lastState = StateUndefined
	d.childActive = false
	d.constructed = false
	if d.action == nil {
		return nil
	}
	if err := d.action.Construct(actor); err != nil {
		return wrapAction("construct", d.action, err)
	}
	d.constructed = true
	return nil
}

func (d *DecoratorNode) Execute(actor *Actor) (State, error) {
	if d.action == nil {
		if d.child == nil {
			return d.lastState, nil
		}
		if err := d.runChild(actor); err != nil {
			return StateUndefined, err
		}
		return d.lastState, nil
	}

	pruned, err := d.action.Prune(actor)
	if err != nil {
		return StateUndefined, wrapAction("prune", d.action, err)
	}
	if !pruned && d.child != nil {
		if err := d.runChild(actor); err != nil {
			return StateUndefined, err
		}
	}

	result, err := d.action.Modify(actor, d.lastState)
	if err != nil {
		return StateUndefined, wrapAction("modify", d.action, err)
	}
	if result != StateRunning && d.childActive {
		d.childActive = false
		if err := d.child.Destruct(actor); err != nil {
			return StateUndefined, err
		}
	}
	return result, nil
}

// runChild ticks the child once, constructing it unless it is still running
// from a previous tick.
func (d *DecoratorNode) runChild(actor *Actor) error {
	if !d.childActive {
		if err := d.child.Construct(actor); err != nil {
			return err
		}
		d.childActive = true
	}
	st, err := d.child.Execute(actor)
	if err != nil {
		return err
	}
	d.lastState = st
	if st != StateRunning {
		d.childActive = false
		return d.child.Destruct(actor)
	}
	return nil
}

func (d *DecoratorNode) Destruct(actor *Actor) error {
	var errs []error
	if d.childActive {
		d.childActive = false
		errs = append(errs, d.child.Destruct(actor))
	}
	if d.action != nil && d.constructed {
		d.constructed = false
		errs = append(errs, wrapAction("destruct", d.action, d.action.Destruct(actor)))
	}
	return errors.Join(errs...)
}

func (d *DecoratorNode) Children() []Node {
	if d.child == nil {
		return nil
	}
	return []Node{d.child}
}

func (d *DecoratorNode) InsertChild(index int, child Node) error {
	if d.child != nil {
		return structural("decorator %q already has a child", d.Name())
	}
	if index != 0 {
		return structural("decorator %q has a single child slot, got index %d", d.Name(), index)
	}
	d.child = child
	return nil
}

// ReplaceChild swaps the child slot wholesale.
func (d *DecoratorNode) ReplaceChild(index int, child Node) error {
	if index != 0 {
		return structural("decorator %q has a single child slot, got index %d", d.Name(), index)
	}
	d.child = child
	d.childActive = false
	return nil
}

func (d *DecoratorNode) RemoveChild(index int) (Node, error) {
	if index != 0 || d.child == nil {
		return nil, structural("decorator %q has no child at index %d", d.Name(), index)
	}
	old := d.child
	d.child = nil
	d.childActive = false
	return old, nil
}

func (d *DecoratorNode) DeepCopy() Node {
	cp := &DecoratorNode{
		action:      d.action,
		lastState:   d.lastState,
		childActive: d.childActive,
		constructed: d.constructed,
	}
	if d.child != nil {
		cp.child = d.child.DeepCopy()
	}
	return cp
}
