// Package sim hosts actors running behavior trees and steps them on a fixed
// tick.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"example.com/behavior-sim/internal/behavior"
	"example.com/behavior-sim/internal/db"
	mqttc "example.com/behavior-sim/internal/mqtt"
)

var (
	ErrUnknownActor = errors.New("unknown actor")
	ErrActorExists  = errors.New("actor already exists")
)

// TreeSource hands out compiled prototype trees by name.
type TreeSource interface {
	Tree(name string) (behavior.Node, error)
}

type Publisher interface {
	Publish(topic string, payload []byte)
}

type Recorder interface {
	RecordDecision(ctx context.Context, d db.Decision) error
}

// Decision is the outcome of one step for one actor.
type Decision struct {
	ActorID string         `json:"actor_id"`
	Tree    string         `json:"tree"`
	Tick    uint64         `json:"tick"`
	State   behavior.State `json:"state"`
	Error   string         `json:"error,omitempty"`
	TS      time.Time      `json:"ts"`
}

// ActorStatus is a point-in-time view of an actor.
type ActorStatus struct {
	ID         string         `json:"id"`
	Tree       string         `json:"tree"`
	Steps      uint64         `json:"steps"`
	Last       behavior.State `json:"last"`
	Disabled   bool           `json:"disabled"`
	Error      string         `json:"error,omitempty"`
	Blackboard map[string]any `json:"blackboard"`
}

type actorRun struct {
	id       string
	tree     string
	actor    *behavior.Actor
	runner   *behavior.Runner
	last     behavior.State
	disabled bool
	err      error
}

type Engine struct {
	Trees     TreeSource
	Publisher Publisher
	Recorder  Recorder
	// Delta is the simulated time in seconds handed to actors each tick.
	Delta float64

	mu        sync.RWMutex
	actors    map[string]*actorRun
	tick      uint64
	listeners []func(Decision)

	cmdChan chan Command
}

func NewEngine(trees TreeSource, delta float64) *Engine {
	return &Engine{
		Trees:   trees,
		Delta:   delta,
		actors:  make(map[string]*actorRun),
		cmdChan: make(chan Command, 64),
	}
}

// OnDecision registers fn to receive every decision after each tick.
func (e *Engine) OnDecision(fn func(Decision)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Start ticks the engine every interval until ctx is cancelled, then aborts
// every running tree.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[sim] engine started, tick every %s", interval)

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Stop aborts every actor's active tree.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.sortedIDs() {
		if err := e.actors[id].runner.Abort(); err != nil {
			log.Printf("[sim] abort %s: %v", id, err)
		}
	}
}

// Enqueue queues cmd for the next tick without blocking.
func (e *Engine) Enqueue(cmd Command) bool {
	select {
	case e.cmdChan <- cmd:
		return true
	default:
		log.Printf("[sim] command queue full, dropping command: %s", cmd.Type)
		return false
	}
}

// HandleMessage decodes a command delivered over MQTT and queues it.
func (e *Engine) HandleMessage(_ mqttlib.Client, msg mqttlib.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("[sim] invalid command JSON on %s: %v", msg.Topic(), err)
		return
	}
	if e.Enqueue(cmd) {
		log.Printf("[sim] queued command: %s", cmd.Type)
	}
}

// Tick applies queued commands, then steps every enabled actor once in
// actor id order.
func (e *Engine) Tick(ctx context.Context) []Decision {
	e.mu.Lock()
	e.drain()
	e.tick++
	now := time.Now().UTC()
	var decisions []Decision
	for _, id := range e.sortedIDs() {
		a := e.actors[id]
		if a.disabled {
			continue
		}
		a.actor.SetDelta(e.Delta)
		st, err := a.runner.Step()
		d := Decision{ActorID: id, Tree: a.tree, Tick: e.tick, State: st, TS: now}
		if err != nil {
			e.disable(a, err)
			d.Error = err.Error()
		}
		a.last = st
		decisions = append(decisions, d)
	}
	listeners := append(([]func(Decision))(nil), e.listeners...)
	e.mu.Unlock()

	for _, d := range decisions {
		e.emit(ctx, d, listeners)
	}
	return decisions
}

func (e *Engine) disable(a *actorRun, err error) {
	var ae *behavior.ActionError
	if errors.As(err, &ae) {
		log.Printf("[sim] actor %s: %s #%d failed in %s: %v", a.id, ae.Action, ae.ID, ae.Phase, ae.Err)
	} else {
		log.Printf("[sim] actor %s: %v", a.id, err)
	}
	a.disabled = true
	a.err = err
	if aerr := a.runner.Abort(); aerr != nil {
		log.Printf("[sim] actor %s: abort after failure: %v", a.id, aerr)
	}
}

func (e *Engine) emit(ctx context.Context, d Decision, listeners []func(Decision)) {
	if e.Publisher != nil {
		if buf, err := json.Marshal(d); err == nil {
			e.Publisher.Publish(mqttc.DecisionTopic(d.ActorID), buf)
		}
	}
	if e.Recorder != nil {
		rec := db.Decision{
			ActorID:   d.ActorID,
			Tree:      d.Tree,
			Tick:      int64(d.Tick),
			State:     d.State.String(),
			Error:     d.Error,
			CreatedAt: d.TS,
		}
		if err := e.Recorder.RecordDecision(ctx, rec); err != nil {
			log.Printf("[sim] record decision: %v", err)
		}
	}
	for _, fn := range listeners {
		fn(d)
	}
}

func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.cmdChan:
			if err := e.apply(cmd); err != nil {
				log.Printf("[sim] command %s failed: %v", cmd.Type, err)
			}
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd Command) error {
	switch cmd.Type {
	case CmdSpawn:
		var p SpawnData
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		_, err := e.spawn(p.ActorID, p.Tree, p.Blackboard)
		return err
	case CmdDespawn:
		var p ActorData
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		return e.despawn(p.ActorID)
	case CmdAbort:
		var p ActorData
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		return e.abort(p.ActorID)
	case CmdSetBlackboard:
		var p BlackboardData
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		a, ok := e.actors[p.ActorID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownActor, p.ActorID)
		}
		a.actor.WriteToBlackboard(p.Key, p.Value)
		return nil
	case CmdReload:
		var p ReloadData
		if len(cmd.Data) > 0 {
			if err := json.Unmarshal(cmd.Data, &p); err != nil {
				return err
			}
		}
		return e.reload(p.Tree)
	case CmdBatch:
		var p BatchData
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		for i, c := range p.Commands {
			log.Printf("[sim] batch: applying command %d/%d: %s", i+1, len(p.Commands), c.Type)
			if err := e.apply(c); err != nil {
				return fmt.Errorf("batch failed at %s: %w", c.Type, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown command type: %s", cmd.Type)
	}
}

// Spawn adds an actor running tree and returns its id. Safe to call while the
// engine is ticking.
func (e *Engine) Spawn(id, tree string, blackboard map[string]any) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spawn(id, tree, blackboard)
}

func (e *Engine) spawn(id, tree string, blackboard map[string]any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := e.actors[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrActorExists, id)
	}
	proto, err := e.Trees.Tree(tree)
	if err != nil {
		return "", fmt.Errorf("spawn %s: %w", id, err)
	}
	actor := behavior.NewActor(id)
	for k, v := range blackboard {
		actor.WriteToBlackboard(k, v)
	}
	e.actors[id] = &actorRun{
		id:     id,
		tree:   tree,
		actor:  actor,
		runner: behavior.NewRunner(proto, actor),
	}
	log.Printf("[sim] spawned actor %s on tree %s", id, tree)
	return id, nil
}

// Despawn aborts and removes an actor.
func (e *Engine) Despawn(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.despawn(id)
}

func (e *Engine) despawn(id string) error {
	a, ok := e.actors[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActor, id)
	}
	delete(e.actors, id)
	if a.disabled {
		return nil
	}
	return a.runner.Abort()
}

// abort ends the actor's current activation and clears a disabled actor.
// The tree starts over from fresh slots on the next tick.
func (e *Engine) abort(id string) error {
	a, ok := e.actors[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActor, id)
	}
	var err error
	if !a.disabled {
		err = a.runner.Abort()
	}
	a.actor = a.actor.Sub()
	a.runner = behavior.NewRunner(a.runner.Root(), a.actor)
	a.disabled = false
	a.err = nil
	return err
}

func (e *Engine) reload(tree string) error {
	var errs []error
	for _, id := range e.sortedIDs() {
		a := e.actors[id]
		if tree != "" && a.tree != tree {
			continue
		}
		proto, err := e.Trees.Tree(a.tree)
		if err != nil {
			errs = append(errs, fmt.Errorf("reload %s: %w", id, err))
			continue
		}
		if !a.disabled {
			if err := a.runner.Abort(); err != nil {
				errs = append(errs, fmt.Errorf("reload %s: %w", id, err))
			}
		}
		a.actor = a.actor.Sub()
		a.runner = behavior.NewRunner(proto, a.actor)
		a.disabled = false
		a.err = nil
	}
	return errors.Join(errs...)
}

// Actors returns a snapshot of every actor, ordered by id.
func (e *Engine) Actors() []ActorStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ActorStatus, 0, len(e.actors))
	for _, id := range e.sortedIDs() {
		out = append(out, e.actors[id].status())
	}
	return out
}

// Actor returns the status of one actor.
func (e *Engine) Actor(id string) (ActorStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.actors[id]
	if !ok {
		return ActorStatus{}, false
	}
	return a.status(), true
}

func (a *actorRun) status() ActorStatus {
	s := ActorStatus{
		ID:         a.id,
		Tree:       a.tree,
		Steps:      a.runner.Steps(),
		Last:       a.last,
		Disabled:   a.disabled,
		Blackboard: a.actor.Blackboard().Snapshot(),
	}
	if a.err != nil {
		s.Error = a.err.Error()
	}
	return s
}

// TickCount is the number of ticks run so far.
func (e *Engine) TickCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

func (e *Engine) sortedIDs() []string {
	ids := make([]string, 0, len(e.actors))
	for id := range e.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
