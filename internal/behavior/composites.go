package behavior

import "errors"

// Composite names used in tree descriptions.
const (
	NameSequence = "sequence"
	NameSelector = "selector"
	NameParallel = "parallel"
	NameDynamic  = "dynamic"
)

// composite holds the ordered child list shared by every composite variant.
type composite struct {
	children []Node
}

func (c *composite) Children() []Node { return c.children }

func (c *composite) InsertChild(index int, child Node) error {
	if index < 0 || index > len(c.children) {
		index = len(c.children)
	}
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	return nil
}

func (c *composite) ReplaceChild(index int, child Node) error {
	if index < 0 || index >= len(c.children) {
		return structural("no child at index %d", index)
	}
	c.children[index] = child
	return nil
}

func (c *composite) RemoveChild(index int) (Node, error) {
	if index < 0 || index >= len(c.children) {
		return nil, structural("no child at index %d", index)
	}
	old := c.children[index]
	c.children = append(c.children[:index], c.children[index+1:]...)
	return old, nil
}

func (c *composite) copyChildren() composite {
	out := composite{children: make([]Node, len(c.children))}
	for i, ch := range c.children {
		out.children[i] = ch.DeepCopy()
	}
	return out
}

// SequenceNode runs its children in order until one does not succeed.
type SequenceNode struct {
	composite
	current int
	active  bool
}

func NewSequenceNode(children ...Node) *SequenceNode {
	return &SequenceNode{composite: composite{children: children}}
}

func (s *SequenceNode) Name() string { return NameSequence }

func (s *SequenceNode) Construct(actor *Actor) error {
	s.current = 0
	s.active = false
	return s.enter(actor)
}

// enter constructs the child under the cursor, if any.
func (s *SequenceNode) enter(actor *Actor) error {
	if s.current >= len(s.children) {
		return nil
	}
	if err := s.children[s.current].Construct(actor); err != nil {
		return err
	}
	s.active = true
	return nil
}

func (s *SequenceNode) Execute(actor *Actor) (State, error) {
	for s.current < len(s.children) {
		if !s.active {
			if err := s.enter(actor); err != nil {
				return StateUndefined, err
			}
		}
		child := s.children[s.current]
		st, err := child.Execute(actor)
		if err != nil {
			return StateUndefined, err
		}
		if st == StateRunning {
			return StateRunning, nil
		}
		s.active = false
		if err := child.Destruct(actor); err != nil {
			return StateUndefined, err
		}
		if st != StateSuccess {
			return st, nil
		}
		s.current++
		if err := s.enter(actor); err != nil {
			return StateUndefined, err
		}
	}
	return StateSuccess, nil
}

func (s *SequenceNode) Destruct(actor *Actor) error {
	if !s.active {
		return nil
	}
	s.active = false
	return s.children[s.current].Destruct(actor)
}

func (s *SequenceNode) DeepCopy() Node {
	return &SequenceNode{composite: s.copyChildren(), current: s.current, active: s.active}
}

// SelectorNode runs its children in order until one does not fail.
type SelectorNode struct {
	composite
	current int
	active  bool
}

func NewSelectorNode(children ...Node) *SelectorNode {
	return &SelectorNode{composite: composite{children: children}}
}

func (s *SelectorNode) Name() string { return NameSelector }

func (s *SelectorNode) Construct(actor *Actor) error {
	s.current = 0
	s.active = false
	return s.enter(actor)
}

func (s *SelectorNode) enter(actor *Actor) error {
	if s.current >= len(s.children) {
		return nil
	}
	if err := s.children[s.current].Construct(actor); err != nil {
		return err
	}
	s.active = true
	return nil
}

func (s *SelectorNode) Execute(actor *Actor) (State, error) {
	for s.current < len(s.children) {
		if !s.active {
			if err := s.enter(actor); err != nil {
				return StateUndefined, err
			}
		}
		child := s.children[s.current]
		st, err := child.Execute(actor)
		if err != nil {
			return StateUndefined, err
		}
		if st == StateRunning {
			return StateRunning, nil
		}
		s.active = false
		if err := child.Destruct(actor); err != nil {
			return StateUndefined, err
		}
		if st == StateSuccess {
			return StateSuccess, nil
		}
		s.current++
		if err := s.enter(actor); err != nil {
			return StateUndefined, err
		}
	}
	return StateFailure, nil
}

func (s *SelectorNode) Destruct(actor *Actor) error {
	if !s.active {
		return nil
	}
	s.active = false
	return s.children[s.current].Destruct(actor)
}

func (s *SelectorNode) DeepCopy() Node {
	return &SelectorNode{composite: s.copyChildren(), current: s.current, active: s.active}
}

// ParallelNode ticks every child on every tick, including children that
// already finished. It fails as soon as one child fails on a tick and
// succeeds once every child succeeds on the same tick. Children are only
// destructed when the parallel node itself is. A failed Construct destructs
// the children it already constructed before returning.
type ParallelNode struct {
	composite
	constructed int
}

func NewParallelNode(children ...Node) *ParallelNode {
	return &ParallelNode{composite: composite{children: children}}
}

func (p *ParallelNode) Name() string { return NameParallel }

func (p *ParallelNode) Construct(actor *Actor) error {
	p.constructed = 0
	for _, child := range p.children {
		if err := child.Construct(actor); err != nil {
			errs := []error{err}
			for i := p.constructed - 1; i >= 0; i-- {
				errs = append(errs, p.children[i].Destruct(actor))
			}
			p.constructed = 0
			return errors.Join(errs...)
		}
		p.constructed++
	}
	return nil
}

func (p *ParallelNode) Execute(actor *Actor) (State, error) {
	successCount := 0
	failed := false
	for _, child := range p.children {
		st, err := child.Execute(actor)
		if err != nil {
			return StateUndefined, err
		}
		switch st {
		case StateSuccess:
			successCount++
		case StateFailure:
			failed = true
		}
	}
	if failed {
		return StateFailure, nil
	}
	if successCount == len(p.children) {
		return StateSuccess, nil
	}
	return StateRunning, nil
}

func (p *ParallelNode) Destruct(actor *Actor) error {
	var errs []error
	for i := 0; i < p.constructed && i < len(p.children); i++ {
		errs = append(errs, p.children[i].Destruct(actor))
	}
	p.constructed = 0
	return errors.Join(errs...)
}

func (p *ParallelNode) DeepCopy() Node {
	return &ParallelNode{composite: p.copyChildren(), constructed: p.constructed}
}

// DynamicSelectorNode rescans its children from the first on every tick, so
// a higher-priority child can take over from a lower-priority one that is
// still running. A running child is never interrupted; it stays constructed
// until it finishes or the node is destructed.
type DynamicSelectorNode struct {
	composite
	active []bool
}

func NewDynamicSelectorNode(children ...Node) *DynamicSelectorNode {
	return &DynamicSelectorNode{composite: composite{children: children}}
}

func (d *DynamicSelectorNode) Name() string { return NameDynamic }

func (d *DynamicSelectorNode) Construct(*Actor) error {
	d.active = make([]bool, len(d.children))
	return nil
}

func (d *DynamicSelectorNode) Execute(actor *Actor) (State, error) {
	if len(d.active) != len(d.children) {
		resized := make([]bool, len(d.children))
		copy(resized, d.active)
		d.active = resized
	}
	for i, child := range d.children {
		if !d.active[i] {
			if err := child.Construct(actor); err != nil {
				return StateUndefined, err
			}
			d.active[i] = true
		}
		st, err := child.Execute(actor)
		if err != nil {
			return StateUndefined, err
		}
		if st == StateRunning {
			return StateRunning, nil
		}
		d.active[i] = false
		if err := child.Destruct(actor); err != nil {
			return StateUndefined, err
		}
		if st == StateSuccess {
			return StateSuccess, nil
		}
	}
	return StateFailure, nil
}

func (d *DynamicSelectorNode) Destruct(actor *Actor) error {
	var errs []error
	for i, on := range d.active {
		if on && i < len(d.children) {
			errs = append(errs, d.children[i].Destruct(actor))
		}
	}
	d.active = nil
	return errors.Join(errs...)
}

func (d *DynamicSelectorNode) DeepCopy() Node {
	cp := &DynamicSelectorNode{composite: d.copyChildren()}
	if d.active != nil {
		cp.active = append([]bool(nil), d.active...)
	}
	return cp
}
