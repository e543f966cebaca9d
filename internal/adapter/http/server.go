package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/couchcryptid/road-risk-service/internal/scoring"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Response messages that are part of the API contract.
const (
	msgUnavailable = "Service unavailable"
	msgBadBody     = "Request body must be a JSON object"
	msgRoot        = "Road Accident Risk Prediction API"
)

// Scorer runs the prediction path for a decoded payload.
type Scorer interface {
	Score(ctx context.Context, payload map[string]any) (scoring.Result, error)
	ModelLoaded() bool
	CheckReadiness(ctx context.Context) error
}

// Server exposes the prediction API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	scorer     Scorer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /predict, /health, /, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, scorer Scorer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      chain(mux, recoverer(logger), requestLogger(logger)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scorer: scorer,
		logger: logger,
	}

	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(scorer))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.scorer.ModelLoaded() {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	payload, ok := decodePayload(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	result, err := s.scorer.Score(r.Context(), payload)
	if err != nil {
		status, msg := classify(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"accident_risk": result.Risk})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": s.scorer.ModelLoaded(),
	})
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msgRoot})
}

// decodePayload reads exactly one JSON object, keeping numbers as json.Number
// so integer fields are not routed through float64. Anything after the object
// other than whitespace rejects the body.
func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return payload, true
}

// classify maps the scoring error taxonomy onto HTTP statuses.
func classify(err error) (int, string) {
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Message
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
