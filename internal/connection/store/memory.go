package store

import (
	"context"
	"sort"
	"sync"

	"porchlight/internal/connection/models"
	id "porchlight/pkg/domain"
	"porchlight/pkg/platform/sentinel"
)

type pairKey struct {
	userID  id.UserID
	otherID id.UserID
}

// InMemory keeps the connection graph in process memory.
type InMemory struct {
	mu          sync.RWMutex
	connections map[pairKey]*models.UserConnection
}

func NewInMemory() *InMemory {
	return &InMemory{connections: make(map[pairKey]*models.UserConnection)}
}

func (s *InMemory) Upsert(_ context.Context, conn *models.UserConnection) (*models.UserConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{conn.UserID, conn.OtherID}
	if existing, ok := s.connections[key]; ok {
		existing.Strength = conn.Strength
		copied := *existing
		return &copied, nil
	}

	copied := *conn
	s.connections[key] = &copied
	result := copied
	return &result, nil
}

func (s *InMemory) Find(_ context.Context, userID, otherID id.UserID) (*models.UserConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[pairKey{userID, otherID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *conn
	return &copied, nil
}

func (s *InMemory) CountByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key := range s.connections {
		if key.userID == userID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) ListRecent(_ context.Context, userID id.UserID, limit int) ([]*models.UserConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*models.UserConnection
	for key, conn := range s.connections {
		if key.userID == userID {
			copied := *conn
			owned = append(owned, &copied)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID.String() > owned[j].ID.String()
	})

	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}
