package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"example.com/behavior-sim/internal/controller"
	"example.com/behavior-sim/internal/db"
	"example.com/behavior-sim/internal/library"
	"example.com/behavior-sim/internal/sim"
)

type Server struct {
	Controller *controller.Controller
	Events     *Broker
}

// NewServer wires the controller to the engine and starts forwarding every
// decision to stream clients.
func NewServer(dbConn *db.DB, lib *library.Library, engine *sim.Engine) *Server {
	events := NewBroker()
	ctrl := controller.New(dbConn, lib, engine, events)
	engine.OnDecision(events.Publish)
	return &Server{Controller: ctrl, Events: events}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/trees", s.handleTreesCollection)
	mux.HandleFunc("/api/trees/validate", s.handleValidateTree)
	mux.HandleFunc("/api/trees/", s.handleTreeItem)
	mux.HandleFunc("/api/actors", s.handleActorsCollection)
	mux.HandleFunc("/api/actors/", s.handleActorSubroutes)
	mux.HandleFunc("/api/commands", s.handleCommand)
	mux.HandleFunc("/api/decisions", s.handleListDecisions)
	mux.Handle("/api/events", s.Events)
	mux.HandleFunc("/api/ws", s.Controller.Stream)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("[http] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.Controller.Health(w, r)
}

func (s *Server) handleTreesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.Controller.ListTrees(w, r)
}

func (s *Server) handleValidateTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.Controller.ValidateTree(w, r)
}

func (s *Server) handleTreeItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.Controller.GetTree(w, r)
	case http.MethodPut:
		s.Controller.PutTree(w, r)
	case http.MethodDelete:
		s.Controller.DeleteTree(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleActorsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.Controller.ListActors(w, r)
	case http.MethodPost:
		s.Controller.SpawnActor(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleActorSubroutes(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case strings.HasSuffix(trimmed, "/abort"):
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.Controller.AbortActor(w, r)
	case strings.HasSuffix(trimmed, "/blackboard"):
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.Controller.SetBlackboard(w, r)
	case r.Method == http.MethodGet:
		s.Controller.GetActor(w, r)
	case r.Method == http.MethodDelete:
		s.Controller.DespawnActor(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.Controller.Command(w, r)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s.Controller.ListDecisions(w, r)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
