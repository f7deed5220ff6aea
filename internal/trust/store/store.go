package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"porchlight/internal/trust/models"
	id "porchlight/pkg/domain"
)

// LogPosition addresses one point in a partition's log for pagination.
// (CreatedAt, ID) is unique and totally ordered within a partition.
type LogPosition struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Store is the persistence gateway for trust scores and their audit log.
//
// ApplyEntry is the single serialization point for score mutation: it persists
// the aggregate value and appends the log entry as one atomic unit, guarded by
// an optimistic check on entry.ScoreBefore. Implementations return:
//   - sentinel.ErrConflict when the aggregate no longer holds ScoreBefore
//     (a concurrent writer won); the service re-reads and retries.
//   - sentinel.ErrAlreadyUsed when entry.ActionID is already logged in the
//     partition (idempotency guard under at-least-once delivery).
type Store interface {
	// GetScore returns the aggregate, or sentinel.ErrNotFound when the pair
	// has never been scored. It never creates a row.
	GetScore(ctx context.Context, userID id.UserID, communityID id.CommunityID) (*models.TrustScore, error)

	// ApplyEntry atomically writes the aggregate and appends the entry.
	// isNewAggregate marks the first event for a pair: the aggregate row is
	// inserted rather than compare-and-swapped.
	ApplyEntry(ctx context.Context, entry *models.TrustScoreLogEntry, isNewAggregate bool) error

	// FindEntryByActionID returns the logged entry for an action id within a
	// partition, or sentinel.ErrNotFound.
	FindEntryByActionID(ctx context.Context, userID id.UserID, communityID id.CommunityID, actionID string) (*models.TrustScoreLogEntry, error)

	// ListLog returns up to limit entries newest first, strictly before the
	// given position when non-nil.
	ListLog(ctx context.Context, userID id.UserID, communityID id.CommunityID, limit int, before *LogPosition) ([]*models.TrustScoreLogEntry, error)
}
