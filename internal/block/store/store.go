package store

import (
	"context"

	"porchlight/internal/block/models"
	id "porchlight/pkg/domain"
)

// Store persists directed blocks. The (BlockerID, BlockedID) pair is unique.
type Store interface {
	// Insert records the block. Re-inserting an existing pair is a no-op that
	// returns the original record with inserted=false, so repeated blocks
	// stay idempotent.
	Insert(ctx context.Context, block *models.BlockedUser) (record *models.BlockedUser, inserted bool, err error)

	// Delete removes the block for the pair. Deleting an absent pair is a
	// no-op.
	Delete(ctx context.Context, blockerID, blockedID id.UserID) error

	// ExistsEither reports whether a block exists in either direction between
	// the two users.
	ExistsEither(ctx context.Context, userID, otherID id.UserID) (bool, error)

	// ListByBlocker returns the users blocked by blockerID, newest first.
	ListByBlocker(ctx context.Context, blockerID id.UserID) ([]*models.BlockedUser, error)
}
