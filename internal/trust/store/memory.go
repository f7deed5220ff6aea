package store

import (
	"context"
	"sort"
	"sync"

	"porchlight/internal/trust/models"
	id "porchlight/pkg/domain"
	"porchlight/pkg/platform/sentinel"
)

type partitionKey struct {
	userID      id.UserID
	communityID id.CommunityID
}

// InMemory keeps scores and logs in process memory. Used in unit tests and
// local development; the mutex gives it the same serialization guarantee the
// Postgres store gets from its transaction.
type InMemory struct {
	mu     sync.RWMutex
	scores map[partitionKey]*models.TrustScore
	logs   map[partitionKey][]*models.TrustScoreLogEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		scores: make(map[partitionKey]*models.TrustScore),
		logs:   make(map[partitionKey][]*models.TrustScoreLogEntry),
	}
}

func (s *InMemory) GetScore(_ context.Context, userID id.UserID, communityID id.CommunityID) (*models.TrustScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.scores[partitionKey{userID, communityID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *score
	return &copied, nil
}

func (s *InMemory) ApplyEntry(_ context.Context, entry *models.TrustScoreLogEntry, isNewAggregate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := partitionKey{entry.UserID, entry.CommunityID}

	if entry.ActionID != "" {
		for _, logged := range s.logs[key] {
			if logged.ActionID == entry.ActionID {
				return sentinel.ErrAlreadyUsed
			}
		}
	}

	current, exists := s.scores[key]
	switch {
	case isNewAggregate:
		if exists {
			// Another writer created the aggregate between read and apply.
			return sentinel.ErrConflict
		}
		s.scores[key] = &models.TrustScore{
			UserID:           entry.UserID,
			CommunityID:      entry.CommunityID,
			Score:            entry.ScoreAfter,
			LastCalculatedAt: entry.CreatedAt,
			CreatedAt:        entry.CreatedAt,
			UpdatedAt:        entry.CreatedAt,
		}
	case !exists:
		return sentinel.ErrNotFound
	case current.Score != entry.ScoreBefore:
		return sentinel.ErrConflict
	default:
		current.Score = entry.ScoreAfter
		current.LastCalculatedAt = entry.CreatedAt
		current.UpdatedAt = entry.CreatedAt
	}

	copied := *entry
	s.logs[key] = append(s.logs[key], &copied)
	return nil
}

func (s *InMemory) FindEntryByActionID(_ context.Context, userID id.UserID, communityID id.CommunityID, actionID string) (*models.TrustScoreLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, logged := range s.logs[partitionKey{userID, communityID}] {
		if actionID != "" && logged.ActionID == actionID {
			copied := *logged
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListLog(_ context.Context, userID id.UserID, communityID id.CommunityID, limit int, before *LogPosition) ([]*models.TrustScoreLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.logs[partitionKey{userID, communityID}]
	entries := make([]*models.TrustScoreLogEntry, 0, len(partition))
	for _, logged := range partition {
		if before != nil {
			if logged.CreatedAt.After(before.CreatedAt) {
				continue
			}
			if logged.CreatedAt.Equal(before.CreatedAt) && logged.ID.String() >= before.ID.String() {
				continue
			}
		}
		copied := *logged
		entries = append(entries, &copied)
	}

	// Newest first; ID string as tiebreaker for stable pagination.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID.String() > entries[j].ID.String()
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
