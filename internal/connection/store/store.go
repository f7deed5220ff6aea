package store

import (
	"context"

	"porchlight/internal/connection/models"
	id "porchlight/pkg/domain"
)

// Store persists the directed connection graph. The (UserID, OtherID) pair is
// unique; Upsert keeps CreatedAt from the original record.
type Store interface {
	// Upsert creates the connection if absent, otherwise updates only the
	// strength. Returns the record as persisted.
	Upsert(ctx context.Context, conn *models.UserConnection) (*models.UserConnection, error)

	// Find returns the connection for the ordered pair, or sentinel.ErrNotFound.
	Find(ctx context.Context, userID, otherID id.UserID) (*models.UserConnection, error)

	// CountByUser returns the number of connections owned by userID.
	CountByUser(ctx context.Context, userID id.UserID) (int, error)

	// ListRecent returns up to limit connections owned by userID, newest first.
	ListRecent(ctx context.Context, userID id.UserID, limit int) ([]*models.UserConnection, error)
}
