package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/behavior-sim/internal/db"
	"example.com/behavior-sim/internal/library"
	"example.com/behavior-sim/internal/sim"
)

const maxBody = 1 << 20

// Controller holds shared dependencies for HTTP handlers. DB may be nil, in
// which case trees live only in memory and the decision log is unavailable.
type Controller struct {
	DB      *db.DB
	Library *library.Library
	Engine  *sim.Engine
	Feed    Feed
}

func New(dbConn *db.DB, lib *library.Library, engine *sim.Engine, feed Feed) *Controller {
	return &Controller{DB: dbConn, Library: lib, Engine: engine, Feed: feed}
}

func (c *Controller) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// parseNameFromPath returns the first path segment after prefix.
func parseNameFromPath(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", errors.New("invalid path")
	}
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" {
		return "", errors.New("missing name")
	}
	name, _, _ := strings.Cut(tail, "/")
	return name, nil
}
