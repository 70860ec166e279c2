package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"example.com/behavior-sim/internal/behavior"
	"example.com/behavior-sim/internal/db"
	"example.com/behavior-sim/internal/library"
	"example.com/behavior-sim/internal/sim"
)

type treeResponse struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Normalized  json.RawMessage `json:"normalized,omitempty"`
	Actions     []actionRef     `json:"actions,omitempty"`
}

type actionRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type validateResponse struct {
	Valid      bool            `json:"valid"`
	Error      string          `json:"error,omitempty"`
	Normalized json.RawMessage `json:"normalized,omitempty"`
	Actions    []actionRef     `json:"actions,omitempty"`
}

func (c *Controller) ListTrees(w http.ResponseWriter, _ *http.Request) {
	names := c.Library.Names()
	out := make([]treeResponse, 0, len(names))
	for _, name := range names {
		raw, _ := c.Library.Source(name)
		out = append(out, treeResponse{Name: name, Description: string(raw)})
	}
	respondJSON(w, http.StatusOK, out)
}

func (c *Controller) GetTree(w http.ResponseWriter, r *http.Request) {
	name, err := parseNameFromPath(r.URL.Path, "/api/trees/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tree name")
		return
	}
	raw, ok := c.Library.Source(name)
	if !ok {
		respondError(w, http.StatusNotFound, "tree not found")
		return
	}
	resp := treeResponse{Name: name, Description: string(raw)}
	root, err := c.Library.Tree(name)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if resp.Normalized, err = c.Library.Builder().Serialize(root); err != nil {
		log.Printf("serialize tree %s: %v", name, err)
		respondError(w, http.StatusInternalServerError, "failed to serialize tree")
		return
	}
	resp.Actions = actionRefs(root)
	respondJSON(w, http.StatusOK, resp)
}

// PutTree stores a tree description. Actors already running the tree keep
// the old version unless ?reload=1 is given.
func (c *Controller) PutTree(w http.ResponseWriter, r *http.Request) {
	name, err := parseNameFromPath(r.URL.Path, "/api/trees/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tree name")
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := c.Library.Put(name, raw); err != nil {
		respondError(w, statusForTreeError(err), fmt.Sprintf("invalid tree: %v", err))
		return
	}
	if c.DB != nil {
		if _, err := c.DB.UpsertTree(r.Context(), name, string(raw)); err != nil {
			log.Printf("store tree %s: %v", name, err)
			respondError(w, http.StatusInternalServerError, "failed to store tree")
			return
		}
	}
	if r.URL.Query().Get("reload") != "" && c.Engine != nil {
		if cmd, err := sim.NewCommand(sim.CmdReload, sim.ReloadData{Tree: name}); err == nil {
			c.Engine.Enqueue(cmd)
		}
	}
	respondJSON(w, http.StatusOK, treeResponse{Name: name, Description: string(raw)})
}

func (c *Controller) DeleteTree(w http.ResponseWriter, r *http.Request) {
	name, err := parseNameFromPath(r.URL.Path, "/api/trees/")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tree name")
		return
	}
	if !c.Library.Remove(name) {
		respondError(w, http.StatusNotFound, "tree not found")
		return
	}
	if c.DB != nil {
		if err := c.DB.DeleteTree(r.Context(), name); err != nil && !errors.Is(err, db.ErrNotFound) {
			log.Printf("delete tree %s: %v", name, err)
			respondError(w, http.StatusInternalServerError, "failed to delete tree")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateTree compiles a description against the library without storing
// it and reports the canonical JSON form.
func (c *Controller) ValidateTree(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	root, err := c.Library.Compile(raw)
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, validateResponse{Error: err.Error()})
		return
	}
	out, err := c.Library.Builder().Serialize(root)
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, validateResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, validateResponse{Valid: true, Normalized: out, Actions: actionRefs(root)})
}

func actionRefs(root behavior.Node) []actionRef {
	var refs []actionRef
	for _, a := range behavior.Actions(root) {
		refs = append(refs, actionRef{ID: a.ID(), Name: a.Name()})
	}
	return refs
}

func statusForTreeError(err error) int {
	switch {
	case errors.Is(err, behavior.ErrUnknownNodeType),
		errors.Is(err, behavior.ErrMalformedDescription),
		errors.Is(err, library.ErrNotFound),
		errors.Is(err, library.ErrCycle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
