package sim

import "encoding/json"

// Command is an instruction queued to the engine and applied at the start of
// the next tick.
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	CmdSpawn         = "spawn"
	CmdDespawn       = "despawn"
	CmdAbort         = "abort"
	CmdSetBlackboard = "set_blackboard"
	CmdReload        = "reload"
	CmdBatch         = "batch"
)

// SpawnData starts a new actor. An empty ActorID gets a generated one.
type SpawnData struct {
	ActorID    string         `json:"actor_id"`
	Tree       string         `json:"tree"`
	Blackboard map[string]any `json:"blackboard,omitempty"`
}

// ActorData names the actor a command targets.
type ActorData struct {
	ActorID string `json:"actor_id"`
}

// BlackboardData writes one blackboard entry.
type BlackboardData struct {
	ActorID string `json:"actor_id"`
	Key     string `json:"key"`
	Value   any    `json:"value"`
}

// ReloadData restarts actors on a freshly compiled tree. An empty Tree
// reloads every actor.
type ReloadData struct {
	Tree string `json:"tree"`
}

// BatchData applies several commands in order, stopping at the first error.
type BatchData struct {
	Commands []Command `json:"commands"`
}

// NewCommand builds a command from a typed payload.
func NewCommand(typ string, data any) (Command, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Data: raw}, nil
}
