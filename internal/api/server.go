package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Kerhoff/todotree/internal/metrics"
	"github.com/Kerhoff/todotree/internal/service"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Options configures the transport concerns of the Server.
type Options struct {
	// AllowedOrigins lists the origins allowed by CORS. "*" allows any.
	AllowedOrigins []string
}

// Server provides the JSON API under /api.
type Server struct {
	svc     *service.Service
	logger  *logrus.Logger
	metrics *metrics.Metrics
	opts    Options
	mux     *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
// m may be nil.
func NewServer(svc *service.Service, logger *logrus.Logger, m *metrics.Metrics, opts Options) *Server {
	s := &Server{svc: svc, logger: logger, metrics: m, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.cors(s.observe(s.mux)))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// API – Auth
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	s.mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	s.mux.HandleFunc("POST /api/auth/validate-username", s.handleValidateUsername)
	s.mux.HandleFunc("POST /api/auth/validate-email", s.handleValidateEmail)

	// API – Lists
	s.mux.HandleFunc("GET /api/todos/lists", s.requireAuth(s.handleGetLists))
	s.mux.HandleFunc("POST /api/todos/lists", s.requireAuth(s.handleCreateList))
	s.mux.HandleFunc("GET /api/todos/lists/{id}", s.requireAuth(s.handleGetList))
	s.mux.HandleFunc("PUT /api/todos/lists/{id}", s.requireAuth(s.handleUpdateList))
	s.mux.HandleFunc("DELETE /api/todos/lists/{id}", s.requireAuth(s.handleDeleteList))

	// API – Items
	s.mux.HandleFunc("GET /api/todos/lists/{id}/items", s.requireAuth(s.handleGetItems))
	s.mux.HandleFunc("POST /api/todos/lists/{id}/items", s.requireAuth(s.handleCreateItem))
	s.mux.HandleFunc("PATCH /api/todos/items/{id}", s.requireAuth(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/todos/items/{id}", s.requireAuth(s.handleDeleteItem))
	s.mux.HandleFunc("POST /api/todos/items/{id}/subitems", s.requireAuth(s.handleCreateSubitem))
	s.mux.HandleFunc("POST /api/todos/items/{id}/move", s.requireAuth(s.handleMoveItem))
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondMessage(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"message": message})
}

// respondServiceError maps a service failure onto its status code. Internal
// failures are logged and answered with a generic message.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
	}
	s.respondError(w, statusFor(kind), service.MessageOf(err))
}

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthentication, service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	switch {
	case err == nil:
		return true, ""
	case errors.Is(err, io.EOF):
		return false, "request body is empty"
	default:
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requirePathID reads {id}. It writes an error response and returns false
// when the id is not an integer.
func (s *Server) requirePathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.WithError(err).Warn("Health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
