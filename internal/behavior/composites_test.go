package behavior

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func tickOnce(t *testing.T, n Node, actor *Actor) State {
	t.Helper()
	require.NoError(t, n.Construct(actor))
	st, err := n.Execute(actor)
	require.NoError(t, err)
	return st
}

func TestSequence_AllSucceed(t *testing.T) {
	t.Parallel()

	var ps tracers
	seq := NewSequenceNode(ps.leaf(StateSuccess), ps.leaf(StateSuccess), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateSuccess, tickOnce(t, seq, actor))
	require.NoError(t, seq.Destruct(actor))
	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute", "c2.destruct",
		"c3.construct", "c3.execute", "c3.destruct",
	}, ps.log)
}

func TestSequence_ShortCircuitsOnFailure(t *testing.T) {
	t.Parallel()

	var ps tracers
	seq := NewSequenceNode(ps.leaf(StateSuccess), ps.leaf(StateFailure), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateFailure, tickOnce(t, seq, actor))
	require.NoError(t, seq.Destruct(actor))
	require.NotContains(t, ps.log, "c3.construct")
	require.NotContains(t, ps.log, "c3.execute")
	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute", "c2.destruct",
	}, ps.log)
}

func TestSequence_ResumesRunningChild(t *testing.T) {
	t.Parallel()

	var ps tracers
	seq := NewSequenceNode(ps.leaf(StateRunning, StateRunning, StateSuccess), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, seq, actor))
	st, err := seq.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateRunning, st)
	st, err = seq.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateSuccess, st)
	require.NoError(t, seq.Destruct(actor))

	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.execute", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute", "c2.destruct",
	}, ps.log)
}

func TestSelector_TriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var ps tracers
	sel := NewSelectorNode(ps.leaf(StateFailure), ps.leaf(StateFailure), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateSuccess, tickOnce(t, sel, actor))
	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute", "c2.destruct",
		"c3.construct", "c3.execute", "c3.destruct",
	}, ps.log)
}

func TestSelector_FirstSuccessWins(t *testing.T) {
	t.Parallel()

	var ps tracers
	sel := NewSelectorNode(ps.leaf(StateSuccess), ps.leaf(StateFailure), ps.leaf(StateFailure))
	actor := NewActor(nil)

	require.Equal(t, StateSuccess, tickOnce(t, sel, actor))
	require.Equal(t, []string{"c1.construct", "c1.execute", "c1.destruct"}, ps.log)
}

func TestSelector_AllFail(t *testing.T) {
	t.Parallel()

	var ps tracers
	sel := NewSelectorNode(ps.leaf(StateFailure), ps.leaf(StateFailure))
	require.Equal(t, StateFailure, tickOnce(t, sel, NewActor(nil)))
}

func TestParallel_SucceedsWhenAllSucceed(t *testing.T) {
	t.Parallel()

	var ps tracers
	par := NewParallelNode(
		ps.leaf(StateSuccess),
		ps.leaf(StateRunning, StateSuccess),
		ps.leaf(StateSuccess),
	)
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, par, actor))
	st, err := par.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateSuccess, st)
	require.NoError(t, par.Destruct(actor))

	require.Equal(t, []string{
		"c1.construct", "c2.construct", "c3.construct",
		"c1.execute", "c2.execute", "c3.execute",
		"c1.execute", "c2.execute", "c3.execute",
		"c1.destruct", "c2.destruct", "c3.destruct",
	}, ps.log)
}

func TestParallel_FailureStillInvokesSiblings(t *testing.T) {
	t.Parallel()

	var ps tracers
	par := NewParallelNode(ps.leaf(StateFailure), ps.leaf(StateSuccess), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateFailure, tickOnce(t, par, actor))
	require.Equal(t, []string{
		"c1.construct", "c2.construct", "c3.construct",
		"c1.execute", "c2.execute", "c3.execute",
	}, ps.log)
}

func TestDynamicSelector_HigherPriorityPreempts(t *testing.T) {
	t.Parallel()

	var ps tracers
	dyn := NewDynamicSelectorNode(
		ps.leaf(StateFailure, StateSuccess),
		ps.leaf(StateRunning),
	)
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, dyn, actor))
	st, err := dyn.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateSuccess, st)
	require.NoError(t, dyn.Destruct(actor))

	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute",
		"c1.construct", "c1.execute", "c1.destruct",
		"c2.destruct",
	}, ps.log)
}

func TestDynamicSelector_ResumesWithoutReconstruct(t *testing.T) {
	t.Parallel()

	var ps tracers
	dyn := NewDynamicSelectorNode(ps.leaf(StateRunning, StateRunning, StateFailure), ps.leaf(StateFailure))
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, dyn, actor))
	st, err := dyn.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateRunning, st)
	st, err = dyn.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateFailure, st)

	require.Equal(t, []string{
		"c1.construct", "c1.execute", "c1.execute", "c1.execute", "c1.destruct",
		"c2.construct", "c2.execute", "c2.destruct",
	}, ps.log)
}

func TestEmptyComposites(t *testing.T) {
	t.Parallel()

	actor := NewActor(nil)
	require.Equal(t, StateSuccess, tickOnce(t, NewSequenceNode(), actor))
	require.Equal(t, StateFailure, tickOnce(t, NewSelectorNode(), actor))
	require.Equal(t, StateSuccess, tickOnce(t, NewParallelNode(), actor))
	require.Equal(t, StateFailure, tickOnce(t, NewDynamicSelectorNode(), actor))
}

func TestDecorator_WithoutActionRunsChild(t *testing.T) {
	t.Parallel()

	var ps tracers
	dec := NewDecoratorNode(nil, ps.leaf(StateRunning, StateFailure))
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, dec, actor))
	st, err := dec.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateFailure, st)
	require.NoError(t, dec.Destruct(actor))
	require.Equal(t, []string{"c1.construct", "c1.execute", "c1.execute", "c1.destruct"}, ps.log)
}

// forceAfter ends the activation with FAILURE after n ticks.
type forceAfter struct {
	BaseAction
	n     int
	ticks int
	prune bool
}

func (f *forceAfter) Name() string { return "force" }

func (f *forceAfter) Prune(*Actor) (bool, error) { return f.prune, nil }

func (f *forceAfter) Modify(_ *Actor, result State) (State, error) {
	f.ticks++
	if f.ticks >= f.n {
		return StateFailure, nil
	}
	return result, nil
}

func TestDecorator_ForcesEarlyDestruct(t *testing.T) {
	t.Parallel()

	var ps tracers
	dec := NewDecoratorNode(&forceAfter{n: 2}, ps.leaf(StateRunning))
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, dec, actor))
	st, err := dec.Execute(actor)
	require.NoError(t, err)
	require.Equal(t, StateFailure, st)
	require.Equal(t, []string{"c1.construct", "c1.execute", "c1.execute", "c1.destruct"}, ps.log)

	require.NoError(t, dec.Destruct(actor))
	require.Len(t, ps.log, 4, "child must not be destructed twice")
}

func TestDecorator_PrunedSkipsChild(t *testing.T) {
	t.Parallel()

	var ps tracers
	dec := NewDecoratorNode(&forceAfter{n: 1, prune: true}, ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Equal(t, StateFailure, tickOnce(t, dec, actor))
	require.Empty(t, ps.log)
	require.Equal(t, StateUndefined, dec.LastState())
}

func TestStructuralViolations(t *testing.T) {
	t.Parallel()

	var ps tracers
	leaf := ps.leaf(StateSuccess)
	err := leaf.InsertChild(0, ps.leaf(StateSuccess))
	require.ErrorIs(t, err, ErrStructuralViolation)
	_, err = leaf.RemoveChild(0)
	require.ErrorIs(t, err, ErrStructuralViolation)

	dec := NewDecoratorNode(nil, ps.leaf(StateSuccess))
	require.ErrorIs(t, dec.InsertChild(0, ps.leaf(StateSuccess)), ErrStructuralViolation)
	require.NoError(t, dec.ReplaceChild(0, leaf))
	require.Same(t, leaf, dec.Child())

	seq := NewSequenceNode()
	require.NoError(t, seq.InsertChild(0, leaf))
	require.ErrorIs(t, seq.ReplaceChild(3, leaf), ErrStructuralViolation)
	removed, err := seq.RemoveChild(0)
	require.NoError(t, err)
	require.Same(t, leaf, removed)
	require.Empty(t, seq.Children())
}

func TestAbandonmentDestructsActiveChildren(t *testing.T) {
	t.Parallel()

	var ps tracers
	root := NewSequenceNode(
		NewParallelNode(ps.leaf(StateRunning), NewSelectorNode(ps.leaf(StateRunning))),
		ps.leaf(StateSuccess),
	)
	actor := NewActor(nil)

	require.Equal(t, StateRunning, tickOnce(t, root, actor))
	ps.log = nil
	require.NoError(t, root.Destruct(actor))
	require.Equal(t, []string{"c1.destruct", "c2.destruct"}, ps.log)
}

func TestParallel_FailedConstructReleasesSiblings(t *testing.T) {
	t.Parallel()

	var ps tracers
	first, second := ps.leaf(StateSuccess), ps.leaf(StateSuccess)
	bad := ps.action(StateSuccess)
	bad.fail = "construct"
	par := NewParallelNode(first, second, NewActionNode(bad), ps.leaf(StateSuccess))
	actor := NewActor(nil)

	err := par.Construct(actor)
	var ae *ActionError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "construct", ae.Phase)
	require.Equal(t, []string{
		"c1.construct", "c2.construct", "c3.construct",
		"c2.destruct", "c1.destruct",
	}, ps.log)

	ps.log = nil
	require.NoError(t, par.Destruct(actor))
	require.Empty(t, ps.log)
}

func TestDecorator_FailedConstructSkipsDestruct(t *testing.T) {
	t.Parallel()

	var ps tracers
	act := ps.action(StateSuccess)
	act.fail = "construct"
	dec := NewDecoratorNode(act, ps.leaf(StateSuccess))
	actor := NewActor(nil)

	require.Error(t, dec.Construct(actor))
	require.NoError(t, dec.Destruct(actor))
	require.Equal(t, []string{"c1.construct"}, ps.log)

	act.fail = ""
	ps.log = nil
	require.NoError(t, dec.Construct(actor))
	require.NoError(t, dec.Destruct(actor))
	require.NoError(t, dec.Destruct(actor))
	require.Equal(t, []string{"c1.construct", "c1.destruct"}, ps.log)
}

func TestActionErrorsPropagate(t *testing.T) {
	t.Parallel()

	var ps tracers
	bad := ps.action(StateSuccess)
	bad.fail = "execute"
	seq := NewSequenceNode(ps.leaf(StateSuccess), NewActionNode(bad))
	actor := NewActor(nil)

	require.NoError(t, seq.Construct(actor))
	_, err := seq.Execute(actor)
	var ae *ActionError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "modify", ae.Phase)
	require.Equal(t, "tracer", ae.Action)
}

func TestDeepCopyIsIndependent(t *testing.T) {
	t.Parallel()

	var ps tracers
	orig := NewSequenceNode(ps.leaf(StateRunning), ps.leaf(StateSuccess))
	cp := orig.DeepCopy().(*SequenceNode)

	require.True(t, Equal(orig, cp))
	require.NotSame(t, orig.Children()[0], cp.Children()[0])
	require.Same(t, orig.Children()[0].(*ActionNode).Action(), cp.Children()[0].(*ActionNode).Action())

	_, err := cp.RemoveChild(1)
	require.NoError(t, err)
	require.Len(t, orig.Children(), 2)
}

func TestVisitPreOrder(t *testing.T) {
	t.Parallel()

	var ps tracers
	root := NewSelectorNode(
		NewSequenceNode(ps.leaf(StateSuccess)),
		NewDecoratorNode(nil, ps.leaf(StateSuccess)),
	)
	var names []string
	var depths []int
	Visit(root, func(n Node, depth int) bool {
		names = append(names, n.Name())
		depths = append(depths, depth)
		return true
	})
	require.Equal(t, []string{"selector", "sequence", "tracer", "decorator", "tracer"}, names)
	require.Equal(t, []int{0, 1, 2, 1, 2}, depths)
}
