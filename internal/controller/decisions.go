package controller

import (
	"log"
	"net/http"
	"strconv"
)

func (c *Controller) ListDecisions(w http.ResponseWriter, r *http.Request) {
	if c.DB == nil {
		respondError(w, http.StatusServiceUnavailable, "decision log disabled")
		return
	}
	q := r.URL.Query()
	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	decisions, err := c.DB.ListDecisions(r.Context(), q.Get("actor"), limit)
	if err != nil {
		log.Printf("list decisions: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}
	respondJSON(w, http.StatusOK, decisions)
}
