package behavior

// Actor binds one running tree to one simulated entity. It carries the tick
// delta, the shared blackboard and the id-keyed slots that hold every piece
// of actor-varying Action state.
type Actor struct {
	delta      float64
	blackboard *Blackboard
	slots      map[int]any
	entity     any
}

// NewActor creates an actor for entity, which may be nil.
func NewActor(entity any) *Actor {
	return &Actor{
		blackboard: NewBlackboard(),
		slots:      make(map[int]any),
		entity:     entity,
	}
}

// Entity returns the simulated entity this actor drives.
func (a *Actor) Entity() any { return a.entity }

// Delta is the time in seconds elapsed since the previous tick.
func (a *Actor) Delta() float64 { return a.delta }

// SetDelta must be called by the host before every step.
func (a *Actor) SetDelta(seconds float64) { a.delta = seconds }

func (a *Actor) Blackboard() *Blackboard { return a.blackboard }

func (a *Actor) ReadFromBlackboard(key string) (any, bool) {
	return a.blackboard.Get(key)
}

func (a *Actor) WriteToBlackboard(key string, value any) {
	a.blackboard.Set(key, value)
}

// Value returns the private slot of the action with the given id, or nil.
func (a *Actor) Value(id int) any {
	return a.slots[id]
}

func (a *Actor) SetValue(id int, value any) {
	a.slots[id] = value
}

// ClearValue drops the slot for id.
func (a *Actor) ClearValue(id int) {
	delete(a.slots, id)
}

// Sub returns an actor sharing the blackboard, entity and current delta of a
// but owning a fresh slot map. Subtrees parsed separately use it so their ids
// cannot collide with the enclosing tree's.
func (a *Actor) Sub() *Actor {
	return &Actor{
		delta:      a.delta,
		blackboard: a.blackboard,
		slots:      make(map[int]any),
		entity:     a.entity,
	}
}
