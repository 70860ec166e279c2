package actions

import (
	"reflect"

	"example.com/behavior-sim/internal/behavior"
)

// Set writes Value under Key on the actor's blackboard.
type Set struct {
	behavior.BaseAction
	Key   string
	Value any
}

func (s *Set) Name() string { return "set" }

func (s *Set) Schema() behavior.Schema {
	return behavior.Schema{
		{Name: "key", Kind: behavior.KindString, Required: true},
		{Name: "value", Kind: behavior.KindAny, Required: true},
	}
}

func (s *Set) Configure(f behavior.Fields) error {
	s.Key = f.String("key")
	s.Value = f["value"]
	return nil
}

func (s *Set) Fields() behavior.Fields {
	return behavior.Fields{"key": s.Key, "value": s.Value}
}

func (s *Set) Modify(actor *behavior.Actor, _ behavior.State) (behavior.State, error) {
	actor.WriteToBlackboard(s.Key, s.Value)
	return behavior.StateSuccess, nil
}

// Check succeeds when the blackboard holds Value under Key.
type Check struct {
	behavior.BaseAction
	Key   string
	Value any
}

func (c *Check) Name() string { return "check" }

func (c *Check) Schema() behavior.Schema {
	return behavior.Schema{
		{Name: "key", Kind: behavior.KindString, Required: true},
		{Name: "value", Kind: behavior.KindAny, Required: true},
	}
}

func (c *Check) Configure(f behavior.Fields) error {
	c.Key = f.String("key")
	c.Value = f["value"]
	return nil
}

func (c *Check) Fields() behavior.Fields {
	return behavior.Fields{"key": c.Key, "value": c.Value}
}

func (c *Check) Modify(actor *behavior.Actor, _ behavior.State) (behavior.State, error) {
	v, ok := actor.ReadFromBlackboard(c.Key)
	if ok && sameValue(v, c.Value) {
		return behavior.StateSuccess, nil
	}
	return behavior.StateFailure, nil
}

// sameValue compares numbers by value regardless of their Go type.
func sameValue(a, b any) bool {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
