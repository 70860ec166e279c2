package behavior

import (
	"errors"
	"fmt"
)

// tracer records every lifecycle call as "<label>.<phase>" in a shared log.
type tracer struct {
	BaseAction
	name   string
	label  string
	states []State
	calls  int
	log    *[]string
	fail   string
}

func (p *tracer) Name() string { return p.name }

func (p *tracer) record(phase string) error {
	*p.log = append(*p.log, p.label+"."+phase)
	if p.fail == phase {
		return errors.New("boom")
	}
	return nil
}

func (p *tracer) Construct(*Actor) error { return p.record("construct") }

func (p *tracer) Destruct(*Actor) error { return p.record("destruct") }

func (p *tracer) Modify(*Actor, State) (State, error) {
	if err := p.record("execute"); err != nil {
		return StateUndefined, err
	}
	st := p.states[len(p.states)-1]
	if p.calls < len(p.states) {
		st = p.states[p.calls]
	}
	p.calls++
	return st, nil
}

// tracers hands out labelled tracer leaves sharing one call log.
type tracers struct {
	log  []string
	next int
}

func (ps *tracers) leaf(states ...State) Node {
	return NewActionNode(ps.action(states...))
}

func (ps *tracers) action(states ...State) *tracer {
	ps.next++
	return &tracer{
		name:   "tracer",
		label:  fmt.Sprintf("c%d", ps.next),
		states: states,
		log:    &ps.log,
	}
}

// recordingRegistry overrides the terminals with tracers labelled by their
// parse order, so descriptions can be ticked and inspected.
func recordingRegistry(log *[]string) *Registry {
	reg := NewRegistry()
	n := 0
	for name, st := range map[string]State{
		NameSuccess: StateSuccess,
		NameFailure: StateFailure,
		NameRunning: StateRunning,
	} {
		name, st := name, st
		reg.RegisterAction(name, func() Action {
			n++
			return &tracer{name: name, label: fmt.Sprintf("c%d", n), states: []State{st}, log: log}
		})
	}
	return reg
}

// gate is a configurable decorator action used by the builder tests.
type gate struct {
	BaseAction
	limit int
	label string
	ratio float64
	open  bool
	extra any
}

func (g *gate) Name() string { return "gate" }

func (g *gate) Schema() Schema {
	return Schema{
		{Name: "limit", Kind: KindInt, Required: true},
		{Name: "label", Kind: KindString},
		{Name: "ratio", Kind: KindFloat},
		{Name: "open", Kind: KindBool},
		{Name: "extra", Kind: KindAny},
	}
}

func (g *gate) Configure(f Fields) error {
	g.limit = f.Int("limit")
	g.label = f.String("label")
	g.ratio = f.Float("ratio")
	g.open = f.Bool("open")
	g.extra = f["extra"]
	if g.limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func (g *gate) Fields() Fields {
	f := Fields{"limit": g.limit}
	if g.label != "" {
		f["label"] = g.label
	}
	if g.ratio != 0 {
		f["ratio"] = g.ratio
	}
	if g.open {
		f["open"] = true
	}
	if g.extra != nil {
		f["extra"] = g.extra
	}
	return f
}

// say is a configurable leaf.
type say struct {
	BaseAction
	text string
}

func (s *say) Name() string { return "say" }

func (s *say) Schema() Schema { return Schema{{Name: "text", Kind: KindString}} }

func (s *say) Configure(f Fields) error {
	s.text = f.String("text")
	return nil
}

func (s *say) Fields() Fields {
	if s.text == "" {
		return nil
	}
	return Fields{"text": s.text}
}

func (s *say) Modify(*Actor, State) (State, error) { return StateSuccess, nil }

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterAction("say", func() Action { return &say{} })
	reg.RegisterDecorator("gate", func() Action { return &gate{} })
	reg.RegisterDecorator("pass", func() Action { return &passThrough{} })
	return reg
}

type passThrough struct {
	BaseAction
}

func (p *passThrough) Name() string { return "pass" }
