// Package service implements the trust score ledger: the only writer of the
// TrustScore aggregate and its append-only audit log.
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"porchlight/internal/platform/metrics"
	"porchlight/internal/trust/models"
	"porchlight/internal/trust/store"
	id "porchlight/pkg/domain"
	dErrors "porchlight/pkg/domain-errors"
	"porchlight/pkg/platform/events"
	"porchlight/pkg/platform/sentinel"
)

const (
	defaultRetryAttempts = 3
	defaultLogPageSize   = 20
	maxLogPageSize       = 100
)

// MembershipChecker verifies that a user belongs to a community. Membership
// is owned by a collaborator; the ledger only consults it.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID id.UserID, communityID id.CommunityID) (bool, error)
}

// Service is the trust score ledger.
type Service struct {
	store         store.Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	publisher     events.Publisher
	memberships   MembershipChecker
	retryAttempts int
	nowFn         func() time.Time
	tracer        trace.Tracer
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

func WithMembershipChecker(checker MembershipChecker) Option {
	return func(s *Service) { s.memberships = checker }
}

func WithRetryAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
	}
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
		return nil, fmt.Errorf("trust store is required")
	}

	svc := &Service{
		store:         st,
		logger:        slog.Default(),
		publisher:     events.Nop{},
		retryAttempts: defaultRetryAttempts,
		nowFn:         time.Now,
		tracer:        otel.Tracer("porchlight/trust"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ScoringEvent is the input to ApplyScoringEvent. PointsChange overrides the
// action catalog when non-nil; ActionID, when set, dedups replays within the
// (user, community) partition.
type ScoringEvent struct {
	UserID       id.UserID
	CommunityID  id.CommunityID
	ActionType   models.ActionType
	ActionID     string
	PointsChange *int
	Metadata     json.RawMessage
}

// scoreAppliedPayload is the event-bus message emitted after a mutation.
type scoreAppliedPayload struct {
	UserID      string            `json:"user_id"`
	CommunityID string            `json:"community_id"`
	ActionType  models.ActionType `json:"action_type"`
	ScoreBefore int               `json:"score_before"`
	ScoreAfter  int               `json:"score_after"`
	EntryID     string            `json:"entry_id"`
}

// ApplyScoringEvent computes the clamped delta and atomically updates the
// aggregate while appending the audit entry. A compare-and-swap miss is
// retried with a fresh read up to the retry budget, then surfaced as a
// conflict so the caller can re-issue the event.
//
// A replayed ActionID returns the originally logged entry together with a
// CodeDuplicateAction error: a no-op for the score, a warning for the caller.
func (s *Service) ApplyScoringEvent(ctx context.Context, event ScoringEvent) (*models.TrustScoreLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "trust.ApplyScoringEvent",
		trace.WithAttributes(
			attribute.String("action_type", string(event.ActionType)),
			attribute.String("community_id", event.CommunityID.String()),
		))
	defer span.End()

	if event.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	if event.CommunityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "community_id is required")
	}
	if !event.ActionType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown action type %q", event.ActionType))
	}

	if s.memberships != nil {
		member, err := s.memberships.IsMember(ctx, event.UserID, event.CommunityID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "membership check failed")
		}
		if !member {
			return nil, dErrors.New(dErrors.CodeNotFound, "user is not a member of the community")
		}
	}

	delta := models.DefaultPoints[event.ActionType]
	if event.PointsChange != nil {
		delta = *event.PointsChange
	}

	if event.ActionID != "" {
		existing, err := s.store.FindEntryByActionID(ctx, event.UserID, event.CommunityID, event.ActionID)
		if err == nil {
			s.countDuplicate()
			return existing, dErrors.New(dErrors.CodeDuplicateAction, "scoring event already applied")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "action id lookup failed")
		}
	}

	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		entry, err := s.applyOnce(ctx, event, delta)
		if err == nil {
			s.afterApply(ctx, entry)
			return entry, nil
		}
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Lost a dedup race: another replay of the same action id landed first.
			s.countDuplicate()
			existing, findErr := s.store.FindEntryByActionID(ctx, event.UserID, event.CommunityID, event.ActionID)
			if findErr != nil {
				return nil, dErrors.Wrap(findErr, dErrors.CodeUnavailable, "duplicate entry lookup failed")
			}
			return existing, dErrors.New(dErrors.CodeDuplicateAction, "scoring event already applied")
		}
		if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.ScoreRetries.Inc()
			}
			continue
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist scoring event failed")
	}

	if s.metrics != nil {
		s.metrics.ScoringEventsConflicted.Inc()
	}
	s.logger.WarnContext(ctx, "scoring event exhausted retry budget",
		"user_id", event.UserID,
		"community_id", event.CommunityID,
		"action_type", event.ActionType,
		"attempts", s.retryAttempts,
	)
	return nil, dErrors.New(dErrors.CodeConflict, "concurrent score updates exceeded retry budget")
}

// applyOnce performs one optimistic attempt: read, clamp, compare-and-swap.
func (s *Service) applyOnce(ctx context.Context, event ScoringEvent, delta int) (*models.TrustScoreLogEntry, error) {
	scoreBefore := 0
	isNew := false

	current, err := s.store.GetScore(ctx, event.UserID, event.CommunityID)
	switch {
	case err == nil:
		scoreBefore = current.Score
	case errors.Is(err, sentinel.ErrNotFound):
		isNew = true
	default:
		return nil, err
	}

	entry := &models.TrustScoreLogEntry{
		ID:           uuid.New(),
		UserID:       event.UserID,
		CommunityID:  event.CommunityID,
		ActionType:   event.ActionType,
		ActionID:     event.ActionID,
		PointsChange: delta,
		ScoreBefore:  scoreBefore,
		ScoreAfter:   models.Clamp(scoreBefore + delta),
		Metadata:     event.Metadata,
		CreatedAt:    s.nowFn().UTC(),
	}

	if err := s.store.ApplyEntry(ctx, entry, isNew); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) afterApply(ctx context.Context, entry *models.TrustScoreLogEntry) {
	if s.metrics != nil {
		s.metrics.ScoringEventsApplied.Inc()
	}
	s.logger.InfoContext(ctx, "scoring event applied",
		"user_id", entry.UserID,
		"community_id", entry.CommunityID,
		"action_type", entry.ActionType,
		"points_change", entry.PointsChange,
		"score_after", entry.ScoreAfter,
	)

	event, err := events.NewEvent(events.TypeScoreApplied, entry.UserID.String(), scoreAppliedPayload{
		UserID:      entry.UserID.String(),
		CommunityID: entry.CommunityID.String(),
		ActionType:  entry.ActionType,
		ScoreBefore: entry.ScoreBefore,
		ScoreAfter:  entry.ScoreAfter,
		EntryID:     entry.ID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "build score event failed", "error", err)
		return
	}
	// Publishing is best-effort: the mutation is already durable, and
	// consumers tolerate missed invalidations via TTL expiry.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publish score event failed",
			"user_id", entry.UserID,
			"error", err,
		)
	}
}

func (s *Service) countDuplicate() {
	if s.metrics != nil {
		s.metrics.ScoringEventsDuplicate.Inc()
	}
}

// GetScore returns the current aggregate. A never-scored pair reads as a
// virtual zero; no row is created until the first scoring event.
func (s *Service) GetScore(ctx context.Context, userID id.UserID, communityID id.CommunityID) (*models.TrustScore, error) {
	if userID.IsNil() || communityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id and community_id are required")
	}

	score, err := s.store.GetScore(ctx, userID, communityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.TrustScore{UserID: userID, CommunityID: communityID}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "get trust score failed")
	}
	return score, nil
}

// logCursor is the decoded form of the opaque pagination cursor.
type logCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        uuid.UUID `json:"id"`
}

// GetLog pages through a partition's audit log, newest first. The returned
// cursor is opaque to callers and empty on the last page.
func (s *Service) GetLog(ctx context.Context, userID id.UserID, communityID id.CommunityID, limit int, cursor string) ([]*models.TrustScoreLogEntry, string, error) {
	if userID.IsNil() || communityID.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "user_id and community_id are required")
	}
	if limit <= 0 {
		limit = defaultLogPageSize
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	var before *store.LogPosition
	if cursor != "" {
		decoded, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid cursor")
		}
		before = &store.LogPosition{CreatedAt: decoded.CreatedAt, ID: decoded.ID}
	}

	entries, err := s.store.ListLog(ctx, userID, communityID, limit, before)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "list trust score log failed")
	}

	next := ""
	if len(entries) == limit {
		last := entries[len(entries)-1]
		next, err = encodeCursor(logCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode cursor failed")
		}
	}
	return entries, next, nil
}

func encodeCursor(c logCursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(encoded string) (logCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return logCursor{}, err
	}
	var c logCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return logCursor{}, err
	}
	return c, nil
}
