// Package scoring runs the per-request prediction path: model gate,
// validation, feature normalization, model call, and the optional audit
// event.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/couchcryptid/road-risk-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ModelSource provides the shared model. It returns
// domain.ErrModelUnavailable until a model is loaded.
type ModelSource interface {
	Predictor() (domain.Predictor, error)
	Loaded() bool
}

// Recorder receives an event for every successful prediction.
type Recorder interface {
	Record(ctx context.Context, event domain.PredictionEvent) error
}

// Result is a successful prediction.
type Result struct {
	Risk float64
	Row  domain.FeatureRow
}

// Service scores untyped payloads. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	models   ModelSource
	recorder Recorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	publishTimeout time.Duration
	inflight       sync.WaitGroup
}

// DefaultPublishTimeout bounds a single prediction event publish.
const DefaultPublishTimeout = 2 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithPublishTimeout sets how long one prediction event may take to publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// New creates a Service. Pass a nil recorder to disable prediction events.
func New(models ModelSource, recorder Recorder, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, opts ...Option) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Service{
		models:         models,
		recorder:       recorder,
		logger:         logger,
		metrics:        metrics,
		clock:          clock,
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelLoaded reports whether a model is available for scoring.
func (s *Service) ModelLoaded() bool {
	return s.models.Loaded()
}

// CheckReadiness returns nil once a model is loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.models.Loaded() {
		return errors.New("model artifact not loaded")
	}
	return nil
}

// Score validates the payload, builds its FeatureRow and asks the model for a
// risk score. Errors are domain.ErrModelUnavailable, *domain.ValidationError
// or *domain.ScoringError.
func (s *Service) Score(ctx context.Context, payload map[string]any) (Result, error) {
	start := s.clock.Now()

	predictor, err := s.models.Predictor()
	if err != nil {
		s.metrics.Predictions.WithLabelValues("unavailable").Inc()
		return Result{}, err
	}

	req, err := domain.Validate(payload)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("invalid").Inc()
		s.logger.Debug("prediction request rejected", "error", err)
		return Result{}, err
	}

	row, err := domain.Normalize(req)
	if err != nil {
		return Result{}, s.scoringFailed(err)
	}

	risk, err := predictor.Predict(ctx, row)
	if err != nil {
		return Result{}, s.scoringFailed(&domain.ScoringError{Err: err})
	}
	if math.IsNaN(risk) || math.IsInf(risk, 0) {
		return Result{}, s.scoringFailed(&domain.ScoringError{
			Err: fmt.Errorf("model returned non-finite prediction %v", risk),
		})
	}

	s.metrics.Predictions.WithLabelValues("success").Inc()
	s.metrics.PredictionDuration.Observe(s.clock.Since(start).Seconds())
	s.record(ctx, row, risk)

	return Result{Risk: risk, Row: row}, nil
}

func (s *Service) scoringFailed(err error) error {
	s.metrics.Predictions.WithLabelValues("error").Inc()
	s.logger.Error("prediction failed", "error", err)
	return err
}

// record publishes the audit event in the background so a slow broker never
// delays the prediction. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, row domain.FeatureRow, risk float64) {
	if s.recorder == nil {
		return
	}
	event := domain.NewPredictionEvent(uuid.NewString(), row, risk, s.clock.Now())

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		// The request context ends with the response; keep its values only.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()

		if err := s.recorder.Record(pubCtx, event); err != nil {
			s.metrics.PredictionEvents.WithLabelValues("error").Inc()
			s.logger.Warn("publish prediction event failed", "error", err, "event_id", event.ID)
			return
		}
		s.metrics.PredictionEvents.WithLabelValues("published").Inc()
	}()
}

// Wait blocks until every prediction event started so far has been published
// or has timed out. Call it before closing the recorder.
func (s *Service) Wait() {
	s.inflight.Wait()
}
