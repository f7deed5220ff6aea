// Package service implements the connection graph: directed, per-owner
// strength ratings between users.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"porchlight/internal/connection/models"
	"porchlight/internal/connection/store"
	"porchlight/internal/platform/metrics"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
	"porchlight/pkg/platform/sentinel"
)

const defaultRecentLimit = 5

// UserChecker verifies that a target user exists; user records live with an
// external collaborator.
type UserChecker interface {
	Exists(ctx context.Context, userID id.UserID) (bool, error)
}

type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	users   UserChecker
	nowFn   func() time.Time
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithUserChecker(users UserChecker) Option {
	return func(s *Service) { s.users = users }
}

func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("connection store is required")
	}

	svc := &Service{
		store:  st,
		logger: slog.Default(),
		nowFn:  time.Now,
		tracer: otel.Tracer("porchlight/connection"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Rate upserts the (userID, otherID) connection. A nil strength clears a
// prior rating without deleting the relationship record; an existing record
// keeps its CreatedAt.
func (s *Service) Rate(ctx context.Context, userID, otherID id.UserID, strength *models.Strength) (*models.UserConnection, error) {
	ctx, span := s.tracer.Start(ctx, "connection.Rate")
	defer span.End()

	if userID.IsNil() || otherID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id and other_id are required")
	}
	if userID == otherID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot rate a connection with yourself")
	}
	if strength != nil && !strength.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown strength %q", *strength))
	}

	if s.users != nil {
		exists, err := s.users.Exists(ctx, otherID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user lookup failed")
		}
		if !exists {
			return nil, dErrors.New(dErrors.CodeNotFound, "target user does not exist")
		}
	}

	conn, err := s.store.Upsert(ctx, &models.UserConnection{
		ID:        uuid.New(),
		UserID:    userID,
		OtherID:   otherID,
		Type:      models.ConnectionTypeInvited,
		Strength:  strength,
		CreatedAt: s.nowFn().UTC(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist connection rating failed")
	}

	if s.metrics != nil {
		s.metrics.ConnectionsRated.Inc()
	}
	s.logger.InfoContext(ctx, "connection rated",
		"user_id", userID,
		"other_id", otherID,
		"strength", strengthLabel(strength),
	)
	return conn, nil
}

// Summary returns the owner's connection count plus their most recent
// connections, newest first.
func (s *Service) Summary(ctx context.Context, userID id.UserID) (*models.ConnectionSummary, error) {
	ctx, span := s.tracer.Start(ctx, "connection.Summary")
	defer span.End()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	total, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "count connections failed")
	}
	recent, err := s.store.ListRecent(ctx, userID, defaultRecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list recent connections failed")
	}

	return &models.ConnectionSummary{
		TotalConnections:  total,
		RecentConnections: recent,
	}, nil
}

// Get returns one direction of the graph, or CodeNotFound.
func (s *Service) Get(ctx context.Context, userID, otherID id.UserID) (*models.UserConnection, error) {
	conn, err := s.store.Find(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "connection not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find connection failed")
	}
	return conn, nil
}

func strengthLabel(s *models.Strength) string {
	if s == nil {
		return "cleared"
	}
	return string(*s)
}
