package actions

import (
	"errors"
	"fmt"

	"example.com/behavior-sim/internal/behavior"
)

// Lookup runs another named tree as a subtree. The looked-up tree keeps its
// own ids, so it runs against a sub-actor that shares the blackboard but not
// the slots. The per-actor copy of the subtree lives in this action's slot
// and survives reactivation.
type Lookup struct {
	behavior.BaseAction
	Tree     string
	Resolver Resolver

	proto behavior.Node
}

type lookupState struct {
	node behavior.Node
	sub  *behavior.Actor
}

func (l *Lookup) Name() string { return "lookup" }

func (l *Lookup) Schema() behavior.Schema {
	return behavior.Schema{{Name: "tree", Kind: behavior.KindString, Required: true}}
}

func (l *Lookup) Configure(f behavior.Fields) error {
	l.Tree = f.String("tree")
	if l.Tree == "" {
		return errors.New("tree must not be empty")
	}
	return nil
}

func (l *Lookup) Fields() behavior.Fields {
	return behavior.Fields{"tree": l.Tree}
}

// Setup resolves the referenced tree once per parse.
func (l *Lookup) Setup() error {
	if l.Resolver == nil {
		return fmt.Errorf("lookup %q: no resolver", l.Tree)
	}
	proto, err := l.Resolver.Resolve(l.Tree)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", l.Tree, err)
	}
	l.proto = proto
	return nil
}

func (l *Lookup) state(actor *behavior.Actor) (*lookupState, error) {
	switch v := actor.Value(l.ID()).(type) {
	case nil:
		if l.proto == nil {
			return nil, fmt.Errorf("lookup %q: tree not resolved", l.Tree)
		}
		st := &lookupState{node: l.proto.DeepCopy(), sub: actor.Sub()}
		actor.SetValue(l.ID(), st)
		return st, nil
	case *lookupState:
		st := v
		st.sub.SetDelta(actor.Delta())
		return st, nil
	default:
		return nil, fmt.Errorf("lookup: %w: %T", errSlot, v)
	}
}

func (l *Lookup) Construct(actor *behavior.Actor) error {
	st, err := l.state(actor)
	if err != nil {
		return err
	}
	return st.node.Construct(st.sub)
}

func (l *Lookup) Modify(actor *behavior.Actor, _ behavior.State) (behavior.State, error) {
	st, err := l.state(actor)
	if err != nil {
		return behavior.StateUndefined, err
	}
	return st.node.Execute(st.sub)
}

func (l *Lookup) Destruct(actor *behavior.Actor) error {
	st, err := l.state(actor)
	if err != nil {
		return err
	}
	return st.node.Destruct(st.sub)
}
