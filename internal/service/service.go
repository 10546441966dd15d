package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todotree/internal/auth"
	"github.com/Kerhoff/todotree/internal/metrics"
	"github.com/Kerhoff/todotree/internal/repository"
)

// Options tunes service behaviour that is a policy choice rather than a
// dependency.
type Options struct {
	// ConcealForeign reports lists and items owned by another user as not
	// found instead of forbidden, so ids of other users' data cannot be
	// probed.
	ConcealForeign bool
}

// Service is the business logic layer. It owns identity, the per-request
// ownership checks and the todo tree rules. Every mutation runs in one
// store transaction together with the checks that guard it.
type Service struct {
	store    repository.Store
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	validate *validator.Validate
	opts     Options
	now      func() time.Time
}

// New creates a new Service with all required dependencies. m may be nil.
func New(store repository.Store, tokens *auth.TokenManager, hasher *auth.Hasher,
	m *metrics.Metrics, logger *logrus.Logger, opts Options,
) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		metrics:  m,
		logger:   logger,
		validate: newValidator(),
		opts:     opts,
		now:      time.Now,
	}
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// asError passes *Error values through and wraps anything else as an
// internal failure.
func asError(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return internal(message, err)
}
