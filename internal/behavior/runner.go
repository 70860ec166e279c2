package behavior

// Runner drives one tree for one actor. The tree repeats for the lifetime of
// the actor: whenever the root finishes, it is destructed, rebuilt and ticked
// again within the same step, so every step yields one decision.
type Runner struct {
	root        Node
	actor       *Actor
	constructed bool
	steps       uint64
}

// NewRunner copies root so that activation state is private to actor.
// Actions remain shared with root.
func NewRunner(root Node, actor *Actor) *Runner {
	return &Runner{root: root.DeepCopy(), actor: actor}
}

func (r *Runner) Root() Node { return r.root }

func (r *Runner) Actor() *Actor { return r.actor }

// Steps is the number of completed calls to Step.
func (r *Runner) Steps() uint64 { return r.steps }

// Step ticks the tree once. Errors raised by actions are returned unchanged;
// the runner is left in whatever state the failing node reached, so callers
// should Abort or drop it.
func (r *Runner) Step() (State, error) {
	st, err := r.tick()
	if err != nil {
		return StateUndefined, err
	}
	if st != StateRunning {
		if err := r.finish(); err != nil {
			return StateUndefined, err
		}
		st, err = r.tick()
		if err != nil {
			return StateUndefined, err
		}
		if st != StateRunning {
			if err := r.finish(); err != nil {
				return StateUndefined, err
			}
		}
	}
	r.steps++
	return st, nil
}

func (r *Runner) tick() (State, error) {
	if !r.constructed {
		if err := r.root.Construct(r.actor); err != nil {
			return StateUndefined, err
		}
		r.constructed = true
	}
	return r.root.Execute(r.actor)
}

func (r *Runner) finish() error {
	r.constructed = false
	return r.root.Destruct(r.actor)
}

// Abort destructs the active tree without waiting for it to finish. The next
// Step starts a fresh activation.
func (r *Runner) Abort() error {
	if !r.constructed {
		return nil
	}
	return r.finish()
}
