package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"porchlight/internal/conversation/models"
	id "porchlight/pkg/domain"
)

// InMemory holds conversations in process memory. Used in tests and as a
// stand-in until the messaging system's store is wired.
type InMemory struct {
	mu            sync.RWMutex
	conversations []*models.Conversation
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Put adds or replaces a conversation by ID.
func (s *InMemory) Put(conv *models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *conv
	copied.ParticipantIDs = slices.Clone(conv.ParticipantIDs)
	for i, existing := range s.conversations {
		if existing.ID == conv.ID {
			s.conversations[i] = &copied
			return
		}
	}
	s.conversations = append(s.conversations, &copied)
}

func (s *InMemory) ListForUser(_ context.Context, userID id.UserID) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*models.Conversation
	for _, conv := range s.conversations {
		if slices.Contains(conv.ParticipantIDs, userID) {
			copied := *conv
			copied.ParticipantIDs = slices.Clone(conv.ParticipantIDs)
			owned = append(owned, &copied)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].LastActivityAt.After(owned[j].LastActivityAt)
	})
	return owned, nil
}
