// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/notify"
	"github.com/okian/brokerflow/internal/adapters/repository"
	service "github.com/okian/brokerflow/internal/app"
	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/negotiation"
	"github.com/okian/brokerflow/internal/domain/pipeline"
	"github.com/okian/brokerflow/internal/domain/ranking"
	"github.com/okian/brokerflow/internal/domain/scoring"
	"github.com/okian/brokerflow/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Ranked(ctx context.Context, limit int) []model.ScoredPolicy
	Policy(ctx context.Context, id string) (model.ScoredPolicy, error)
	Explain(ctx context.Context, id string) (scoring.Breakdown, error)
	AddPolicy(ctx context.Context, in model.PolicyInput) (model.Policy, error)
	ReplacePolicy(ctx context.Context, p model.Policy) (model.Policy, error)
	RemovePolicy(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status model.Status) (service.StatusChange, error)

	RequestBrief(ctx context.Context, id string) (string, error)
	Brief() brief.Snapshot

	Weights() model.Weights
	SetWeights(ctx context.Context, w model.Weights) error
	Simulate(in negotiation.Input) (negotiation.Result, error)
	Summary(ctx context.Context) ranking.Summary
	Notifications(n int) []notify.Notification
	Rewards() int

	SetCredential(ctx context.Context, key string) error
	HasCredential() bool
	Preferences() service.Preferences
	SetPreferences(ctx context.Context, p service.Preferences) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	schema  *policySchema
	origins []string
	logger  logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		schema:        newPolicySchema(),
		origins:       []string{"*"},
		logger:        logger.Nop(),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router. Extra route groups, such as the API docs,
// are mounted through mounts.
func (s *Server) Router(mounts ...func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger(s.logger))

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/api", func(r chi.Router) {
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", s.handleListPolicies)
			r.Post("/", s.handleCreatePolicy)
			r.Get("/{id}", s.handleGetPolicy)
			r.Put("/{id}", s.handleReplacePolicy)
			r.Delete("/{id}", s.handleDeletePolicy)
			r.Get("/{id}/score", s.handleExplainPolicy)
			r.Put("/{id}/status", s.handleUpdateStatus)
			r.Post("/{id}/brief", s.handleRequestBrief)
		})
		r.Get("/brief", s.handleGetBrief)

		r.Get("/weights", s.handleGetWeights)
		r.Put("/weights", s.handlePutWeights)

		r.Post("/negotiation/retention", s.handleSimulate)

		r.Get("/summary", s.handleSummary)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/rewards", s.handleRewards)

		r.Route("/settings", func(r chi.Router) {
			r.Put("/credential", s.handlePutCredential)
			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handlePutPreferences)
		})
	})

	for _, mount := range mounts {
		mount(r)
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error kind to a status code.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidDate),
		errors.Is(err, negotiation.ErrOutOfRange),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, pipeline.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err)
	case errors.Is(err, service.ErrMissingCredential):
		writeError(w, http.StatusPreconditionFailed, codeMissingCredential, err)
	case errors.Is(err, service.ErrQueueUnavailable), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, err)
	default:
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, nil)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Join(ErrBadRequest, errors.New("invalid "+name))
	}
	return n, nil
}
