package actions

import (
	"errors"

	"example.com/behavior-sim/internal/behavior"
)

// Delay holds its child back until Duration seconds of tick deltas have
// accumulated, reporting RUNNING while it waits.
type Delay struct {
	behavior.BaseAction
	Duration float64
}

func (d *Delay) Name() string { return "delay" }

func (d *Delay) Schema() behavior.Schema {
	return behavior.Schema{{Name: "duration", Kind: behavior.KindFloat, Required: true}}
}

func (d *Delay) Configure(f behavior.Fields) error {
	d.Duration = f.Float("duration")
	if d.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

func (d *Delay) Fields() behavior.Fields {
	return behavior.Fields{"duration": d.Duration}
}

func (d *Delay) Construct(actor *behavior.Actor) error {
	actor.SetValue(d.ID(), 0.0)
	return nil
}

func (d *Delay) Prune(actor *behavior.Actor) (bool, error) {
	elapsed, _ := actor.Value(d.ID()).(float64)
	if elapsed >= d.Duration {
		return false, nil
	}
	elapsed += actor.Delta()
	actor.SetValue(d.ID(), elapsed)
	return elapsed < d.Duration, nil
}

func (d *Delay) Modify(actor *behavior.Actor, result behavior.State) (behavior.State, error) {
	elapsed, _ := actor.Value(d.ID()).(float64)
	if elapsed < d.Duration {
		return behavior.StateRunning, nil
	}
	return result, nil
}

// Timeout fails once its child has been running for Duration seconds of
// tick deltas, destructing the child early.
type Timeout struct {
	behavior.BaseAction
	Duration float64
}

func (t *Timeout) Name() string { return "timeout" }

func (t *Timeout) Schema() behavior.Schema {
	return behavior.Schema{{Name: "duration", Kind: behavior.KindFloat, Required: true}}
}

func (t *Timeout) Configure(f behavior.Fields) error {
	t.Duration = f.Float("duration")
	if t.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	return nil
}

func (t *Timeout) Fields() behavior.Fields {
	return behavior.Fields{"duration": t.Duration}
}

func (t *Timeout) Construct(actor *behavior.Actor) error {
	actor.SetValue(t.ID(), 0.0)
	return nil
}

func (t *Timeout) Modify(actor *behavior.Actor, result behavior.State) (behavior.State, error) {
	elapsed, _ := actor.Value(t.ID()).(float64)
	elapsed += actor.Delta()
	actor.SetValue(t.ID(), elapsed)
	if result == behavior.StateRunning && elapsed >= t.Duration {
		return behavior.StateFailure, nil
	}
	return result, nil
}
