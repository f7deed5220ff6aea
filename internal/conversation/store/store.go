package store

import (
	"context"

	"porchlight/internal/conversation/models"
	id "porchlight/pkg/domain"
)

// Store reads conversations for listing. The messaging system writes them;
// this side only queries.
type Store interface {
	// ListForUser returns the conversations userID participates in, most
	// recent activity first.
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error)
}
