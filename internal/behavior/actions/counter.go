package actions

import (
	"errors"
	"fmt"

	"example.com/behavior-sim/internal/behavior"
)

// Counter runs its child Count times, reporting RUNNING between runs and
// SUCCESS after the last one. The remaining count lives in the actor slot and
// is not reset when the decorator is reconstructed; once it is used up, the
// next activation spends one pruned tick re-arming it.
type Counter struct {
	behavior.BaseAction
	Count int
}

type counterState struct {
	remaining int
	rearmed   bool
}

func (c *Counter) Name() string { return "counter" }

func (c *Counter) Schema() behavior.Schema {
	return behavior.Schema{{Name: "count", Kind: behavior.KindInt, Required: true}}
}

func (c *Counter) Configure(f behavior.Fields) error {
	c.Count = f.Int("count")
	if c.Count <= 0 {
		return errors.New("count must be positive")
	}
	return nil
}

func (c *Counter) Fields() behavior.Fields {
	return behavior.Fields{"count": c.Count}
}

func (c *Counter) state(actor *behavior.Actor) (*counterState, error) {
	switch v := actor.Value(c.ID()).(type) {
	case nil:
		st := &counterState{remaining: c.Count}
		actor.SetValue(c.ID(), st)
		return st, nil
	case *counterState:
		return v, nil
	default:
		return nil, fmt.Errorf("counter: %w: %T", errSlot, v)
	}
}

func (c *Counter) Construct(actor *behavior.Actor) error {
	_, err := c.state(actor)
	return err
}

func (c *Counter) Prune(actor *behavior.Actor) (bool, error) {
	st, err := c.state(actor)
	if err != nil {
		return false, err
	}
	if st.remaining <= 0 {
		st.remaining = c.Count
		st.rearmed = true
		return true, nil
	}
	return false, nil
}

func (c *Counter) Modify(actor *behavior.Actor, result behavior.State) (behavior.State, error) {
	st, err := c.state(actor)
	if err != nil {
		return behavior.StateUndefined, err
	}
	if st.rearmed {
		st.rearmed = false
		return behavior.StateRunning, nil
	}
	switch result {
	case behavior.StateRunning:
		return behavior.StateRunning, nil
	case behavior.StateSuccess, behavior.StateFailure:
		st.remaining--
		if st.remaining > 0 {
			return behavior.StateRunning, nil
		}
		return behavior.StateSuccess, nil
	}
	return result, nil
}

// Repeat re-runs its child until it has finished Count times, then reports
// the child's last result. A Count of zero repeats forever.
type Repeat struct {
	behavior.BaseAction
	Count int
}

func (r *Repeat) Name() string { return "repeat" }

func (r *Repeat) Schema() behavior.Schema {
	return behavior.Schema{{Name: "count", Kind: behavior.KindInt}}
}

func (r *Repeat) Configure(f behavior.Fields) error {
	r.Count = f.Int("count")
	if r.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func (r *Repeat) Fields() behavior.Fields {
	if r.Count == 0 {
		return nil
	}
	return behavior.Fields{"count": r.Count}
}

func (r *Repeat) Construct(actor *behavior.Actor) error {
	actor.SetValue(r.ID(), 0)
	return nil
}

func (r *Repeat) Modify(actor *behavior.Actor, result behavior.State) (behavior.State, error) {
	if !result.Done() {
		return result, nil
	}
	n, _ := actor.Value(r.ID()).(int)
	n++
	actor.SetValue(r.ID(), n)
	if r.Count > 0 && n >= r.Count {
		return result, nil
	}
	return behavior.StateRunning, nil
}

// Invert swaps SUCCESS and FAILURE.
type Invert struct {
	behavior.BaseAction
}

func (i *Invert) Name() string { return "invert" }

func (i *Invert) Modify(_ *behavior.Actor, result behavior.State) (behavior.State, error) {
	switch result {
	case behavior.StateSuccess:
		return behavior.StateFailure, nil
	case behavior.StateFailure:
		return behavior.StateSuccess, nil
	}
	return result, nil
}
