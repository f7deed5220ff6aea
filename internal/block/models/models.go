// Package models defines the block registry records.
package models

import (
	"time"

	id "porchlight/pkg/domain"
)

// BlockedUser is a directed block: BlockerID no longer wants to see or be
// contacted by BlockedID. Visibility checks treat the pair symmetrically; the
// direction only records who initiated it.
type BlockedUser struct {
	BlockerID id.UserID `json:"blocker_id"`
	BlockedID id.UserID `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}
