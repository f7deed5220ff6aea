package store

import (
	"context"
	"sort"
	"sync"

	"porchlight/internal/block/models"
	id "porchlight/pkg/domain"
)

type pairKey struct {
	blockerID id.UserID
	blockedID id.UserID
}

// InMemory keeps the block registry in process memory.
type InMemory struct {
	mu     sync.RWMutex
	blocks map[pairKey]*models.BlockedUser
}

func NewInMemory() *InMemory {
	return &InMemory{blocks: make(map[pairKey]*models.BlockedUser)}
}

func (s *InMemory) Insert(_ context.Context, block *models.BlockedUser) (*models.BlockedUser, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{block.BlockerID, block.BlockedID}
	if existing, ok := s.blocks[key]; ok {
		copied := *existing
		return &copied, false, nil
	}

	copied := *block
	s.blocks[key] = &copied
	result := copied
	return &result, true, nil
}

func (s *InMemory) Delete(_ context.Context, blockerID, blockedID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks, pairKey{blockerID, blockedID})
	return nil
}

func (s *InMemory) ExistsEither(_ context.Context, userID, otherID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.blocks[pairKey{userID, otherID}]; ok {
		return true, nil
	}
	_, ok := s.blocks[pairKey{otherID, userID}]
	return ok, nil
}

func (s *InMemory) ListByBlocker(_ context.Context, blockerID id.UserID) ([]*models.BlockedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*models.BlockedUser
	for key, block := range s.blocks {
		if key.blockerID == blockerID {
			copied := *block
			owned = append(owned, &copied)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].BlockedID.String() > owned[j].BlockedID.String()
	})
	return owned, nil
}
