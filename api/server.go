package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darkwire-games/darkwire/game/engine"
	"github.com/darkwire-games/darkwire/game/session"
)

// Server is the ops HTTP server.
type Server struct {
	sessions *session.Manager
	router   *mux.Router
}

// NewServer creates the ops server over the session registry. When reg is
// non-nil its collectors are exposed on /metrics.
func NewServer(sessions *session.Manager, reg *prometheus.Registry) *Server {
	s := &Server{
		sessions: sessions,
		router:   mux.NewRouter(),
	}
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	apiRouter.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")

	if reg != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID             uuid.UUID `json:"id"`
	Phase          string    `json:"phase"`
	Turn           uint32    `json:"turn"`
	Users          int       `json:"users"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// UserDetail is one user inside a session detail view.
type UserDetail struct {
	Name        string          `json:"name"`
	Built       bool            `json:"built"`
	CurrentNode uint32          `json:"current_node"`
	KnownNodes  int             `json:"known_nodes"`
	Tokens      []engine.Token  `json:"tokens"`
	Ergs        engine.ErgArray `json:"ergs"`
	Vitals      [4]int          `json:"vitals"`
	Terminated  bool            `json:"terminated"`
}

// SessionDetail is the full operator view of one session.
type SessionDetail struct {
	SessionSummary
	Tick    uint32       `json:"tick"`
	Mission string       `json:"mission"`
	Users   []UserDetail `json:"user_details"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var out []SessionSummary
	for _, sess := range s.sessions.List() {
		sess.With(func(e *engine.Engine) {
			out = append(out, summarize(sess, e))
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if out == nil {
		out = []SessionSummary{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed session id")
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var detail SessionDetail
	sess.With(func(e *engine.Engine) {
		g := e.State()
		detail = SessionDetail{
			SessionSummary: summarize(sess, e),
			Tick:           g.Tick,
			Mission:        g.Mission.Name,
		}
		names := make([]string, 0, len(g.Users))
		for name := range g.Users {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			u := g.Users[name]
			tokens := u.Mission.Tokens
			if tokens == nil {
				tokens = []engine.Token{}
			}
			detail.Users = append(detail.Users, UserDetail{
				Name:        name,
				Built:       u.Player != nil,
				CurrentNode: uint32(u.Mission.Current),
				KnownNodes:  len(u.Mission.Known),
				Tokens:      tokens,
				Ergs:        u.Ergs,
				Vitals:      u.Machine.Vitals,
				Terminated:  u.Machine.Terminated(),
			})
		}
	})
	respondJSON(w, http.StatusOK, detail)
}

// summarize builds the list row for one session. Callers hold the session
// lock via With.
func summarize(sess *session.Session, e *engine.Engine) SessionSummary {
	g := e.State()
	return SessionSummary{
		ID:             sess.ID,
		Phase:          g.Phase.String(),
		Turn:           g.Turn,
		Users:          len(g.Users),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}
}
