package model

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Handle is the process-wide reference to the loaded model. It starts empty
// and becomes available after the first successful Load. A failed load never
// replaces a model that is already serving.
type Handle struct {
	path    string
	clock   clockwork.Clock
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	predictor domain.Predictor
	loadedAt  time.Time
}

// NewHandle creates an empty handle for the artifact at path.
func NewHandle(path string, clock clockwork.Clock) *Handle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handle{path: path, clock: clock}
}

// Path returns the artifact path this handle loads from.
func (h *Handle) Path() string { return h.path }

// Load reads the artifact from disk and, on success, swaps it in.
func (h *Handle) Load() (*Ensemble, error) {
	e, err := Load(h.path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", h.path, err)
	}
	h.Set(e)
	return e, nil
}

// Set installs p as the serving predictor.
func (h *Handle) Set(p domain.Predictor) {
	h.current.Store(&snapshot{predictor: p, loadedAt: h.clock.Now()})
}

// Loaded reports whether a model has been installed.
func (h *Handle) Loaded() bool {
	return h.current.Load() != nil
}

// LoadedAt returns when the serving model was installed, or the zero time.
func (h *Handle) LoadedAt() time.Time {
	if s := h.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Predictor returns the serving model or domain.ErrModelUnavailable.
func (h *Handle) Predictor() (domain.Predictor, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrModelUnavailable
	}
	return s.predictor, nil
}
