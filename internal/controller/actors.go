package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"example.com/behavior-sim/internal/sim"
)

type blackboardRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (c *Controller) ListActors(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, c.Engine.Actors())
}

func (c *Controller) GetActor(w http.ResponseWriter, r *http.Request) {
	id, err := parseNameFromPath(r.URL.Path, "/api/actors/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid actor id")
		return
	}
	st, ok := c.Engine.Actor(id)
	if !ok {
		respondError(w, http.StatusNotFound, "actor not found")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// SpawnActor queues a spawn for the next tick. The tree is checked up front
// so that obvious mistakes are reported synchronously.
func (c *Controller) SpawnActor(w http.ResponseWriter, r *http.Request) {
	var req sim.SpawnData
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid spawn payload")
		return
	}
	if strings.TrimSpace(req.Tree) == "" {
		respondError(w, http.StatusBadRequest, "tree required")
		return
	}
	if _, err := c.Library.Tree(req.Tree); err != nil {
		respondError(w, statusForTreeError(err), err.Error())
		return
	}
	if req.ActorID == "" {
		req.ActorID = uuid.NewString()
	}
	c.enqueue(w, sim.CmdSpawn, req, map[string]string{"actor_id": req.ActorID})
}

func (c *Controller) DespawnActor(w http.ResponseWriter, r *http.Request) {
	id, err := parseNameFromPath(r.URL.Path, "/api/actors/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid actor id")
		return
	}
	c.enqueue(w, sim.CmdDespawn, sim.ActorData{ActorID: id}, nil)
}

func (c *Controller) AbortActor(w http.ResponseWriter, r *http.Request) {
	id, err := parseNameFromPath(r.URL.Path, "/api/actors/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid actor id")
		return
	}
	c.enqueue(w, sim.CmdAbort, sim.ActorData{ActorID: id}, nil)
}

func (c *Controller) SetBlackboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseNameFromPath(r.URL.Path, "/api/actors/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid actor id")
		return
	}
	var req blackboardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil || req.Key == "" {
		respondError(w, http.StatusBadRequest, "invalid blackboard payload")
		return
	}
	c.enqueue(w, sim.CmdSetBlackboard, sim.BlackboardData{ActorID: id, Key: req.Key, Value: req.Value}, nil)
}

// Command accepts a raw engine command, the same shape the host takes
// over MQTT.
func (c *Controller) Command(w http.ResponseWriter, r *http.Request) {
	var cmd sim.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&cmd); err != nil || cmd.Type == "" {
		respondError(w, http.StatusBadRequest, "invalid command payload")
		return
	}
	if !c.Engine.Enqueue(cmd) {
		respondError(w, http.StatusServiceUnavailable, "command queue full")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (c *Controller) enqueue(w http.ResponseWriter, typ string, data any, body any) {
	cmd, err := sim.NewCommand(typ, data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !c.Engine.Enqueue(cmd) {
		respondError(w, http.StatusServiceUnavailable, "command queue full")
		return
	}
	if body == nil {
		body = map[string]string{"status": "queued"}
	}
	respondJSON(w, http.StatusAccepted, body)
}
