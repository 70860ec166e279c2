package behavior

// Action is the pluggable part of a leaf or decorator. One instance exists per
// occurrence in a parsed tree and is shared by every actor running that tree,
// so implementations must keep actor-varying state in the actor's slot for ID.
type Action interface {
	Name() string
	ID() int
	SetID(id int)

	Construct(actor *Actor) error
	// Prune reports whether a decorator should skip its child this tick.
	Prune(actor *Actor) (bool, error)
	// Modify produces the node result. Leaves receive StateUndefined;
	// decorators receive the child's last result.
	Modify(actor *Actor, result State) (State, error)
	Destruct(actor *Actor) error
}

// Configurable actions expose their fields through an explicit schema.
type Configurable interface {
	Schema() Schema
	Configure(fields Fields) error
	Fields() Fields
}

// Setupper is implemented by actions that need a one-time hook after their
// id is assigned and injectors have run.
type Setupper interface {
	Setup() error
}

// BaseAction supplies the id bookkeeping and pass-through lifecycle methods.
type BaseAction struct {
	id int
}

func (b *BaseAction) ID() int { return b.id }

func (b *BaseAction) SetID(id int) { b.id = id }

func (b *BaseAction) Construct(*Actor) error { return nil }

func (b *BaseAction) Prune(*Actor) (bool, error) { return false, nil }

func (b *BaseAction) Modify(_ *Actor, result State) (State, error) { return result, nil }

func (b *BaseAction) Destruct(*Actor) error { return nil }
