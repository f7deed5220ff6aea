// Package service implements the block registry: directed blocks with
// symmetric visibility consequences.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"porchlight/internal/block/models"
	"porchlight/internal/block/store"
	"porchlight/internal/platform/metrics"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
	"porchlight/pkg/platform/events"
)

// Invalidator drops cached read models that embed visibility decisions.
// Both sides of a block change see different conversation lists afterwards.
type Invalidator interface {
	Invalidate(ctx context.Context, userIDs ...id.UserID)
}

// Service is the block registry.
type Service struct {
	store     store.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	caches    Invalidator
	nowFn     func() time.Time
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithInvalidator(caches Invalidator) Option {
	return func(s *Service) { s.caches = caches }
}

// WithClock injects the time source for tests.
func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("block store is required")
	}

	svc := &Service{
		store:     st,
		logger:    slog.Default(),
		publisher: events.Nop{},
		nowFn:     time.Now,
		tracer:    otel.Tracer("porchlight/block"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// blockChangedPayload is the event-bus message for block and unblock.
type blockChangedPayload struct {
	BlockerID string `json:"blocker_id"`
	BlockedID string `json:"blocked_id"`
}

// Block records that blockerID blocks blockedID. Repeating an existing block
// is a no-op that returns the original record.
func (s *Service) Block(ctx context.Context, blockerID, blockedID id.UserID) (*models.BlockedUser, error) {
	ctx, span := s.tracer.Start(ctx, "block.Block",
		trace.WithAttributes(attribute.String("blocker_id", blockerID.String())))
	defer span.End()

	if err := validatePair(blockerID, blockedID); err != nil {
		return nil, err
	}

	block, inserted, err := s.store.Insert(ctx, &models.BlockedUser{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: s.nowFn().UTC(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist block failed")
	}
	if !inserted {
		// Pre-existing block: nothing changed, nobody to notify.
		return block, nil
	}

	if s.metrics != nil {
		s.metrics.BlocksCreated.Inc()
	}
	s.logger.InfoContext(ctx, "user blocked",
		"blocker_id", blockerID,
		"blocked_id", blockedID,
	)
	s.afterChange(ctx, events.TypeUserBlocked, blockerID, blockedID)
	return block, nil
}

// Unblock removes the block from blockerID to blockedID. Removing an absent
// block is a no-op.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "block.Unblock",
		trace.WithAttributes(attribute.String("blocker_id", blockerID.String())))
	defer span.End()

	if err := validatePair(blockerID, blockedID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, blockerID, blockedID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "remove block failed")
	}

	if s.metrics != nil {
		s.metrics.BlocksRemoved.Inc()
	}
	s.logger.InfoContext(ctx, "user unblocked",
		"blocker_id", blockerID,
		"blocked_id", blockedID,
	)
	s.afterChange(ctx, events.TypeUserUnblocked, blockerID, blockedID)
	return nil
}

// IsBlocked reports whether a block exists between the two users in either
// direction. Visibility consequences are symmetric regardless of who blocked.
func (s *Service) IsBlocked(ctx context.Context, userID, otherID id.UserID) (bool, error) {
	if userID.IsNil() || otherID.IsNil() {
		return false, dErrors.New(dErrors.CodeBadRequest, "both user ids are required")
	}

	blocked, err := s.store.ExistsEither(ctx, userID, otherID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "block lookup failed")
	}
	return blocked, nil
}

// ListBlocked returns the users blocked by blockerID, newest first.
func (s *Service) ListBlocked(ctx context.Context, blockerID id.UserID) ([]*models.BlockedUser, error) {
	if blockerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "blocker_id is required")
	}

	blocks, err := s.store.ListByBlocker(ctx, blockerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list blocks failed")
	}
	if blocks == nil {
		blocks = []*models.BlockedUser{}
	}
	return blocks, nil
}

// afterChange fans out the side effects of a registry mutation. Cache and
// event-bus failures never fail the mutation itself.
func (s *Service) afterChange(ctx context.Context, eventType string, blockerID, blockedID id.UserID) {
	if s.caches != nil {
		s.caches.Invalidate(ctx, blockerID, blockedID)
	}

	event, err := events.NewEvent(eventType, blockerID.String(), blockChangedPayload{
		BlockerID: blockerID.String(),
		BlockedID: blockedID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "build block event failed", "error", err.Error())
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publish block event failed",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

func validatePair(blockerID, blockedID id.UserID) error {
	if blockerID.IsNil() || blockedID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "both user ids are required")
	}
	if blockerID == blockedID {
		return dErrors.New(dErrors.CodeBadRequest, "cannot block yourself")
	}
	return nil
}
