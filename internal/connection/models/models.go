// Package models defines the directed connection graph between users.
package models

import (
	"time"

	"github.com/google/uuid"

	id "porchlight/pkg/domain"
)

// ConnectionType tags how the relationship came to exist.
type ConnectionType string

// ConnectionTypeInvited is the only provenance today: connections are created
// when one member rates another they were introduced to.
const ConnectionTypeInvited ConnectionType = "invited"

// Strength is the qualitative rating one user assigns a connection.
type Strength string

const (
	StrengthTrusted  Strength = "trusted"
	StrengthPositive Strength = "positive"
	StrengthNeutral  Strength = "neutral"
	StrengthNegative Strength = "negative"
	StrengthUnknown  Strength = "unknown"
)

// IsValid reports whether the strength is one of the enumerated values.
func (s Strength) IsValid() bool {
	switch s {
	case StrengthTrusted, StrengthPositive, StrengthNeutral, StrengthNegative, StrengthUnknown:
		return true
	}
	return false
}

// UserConnection is one direction of the graph: (UserID -> OtherID). The
// reverse direction is an independent record owned by the other side.
// Strength is nil when the owner has cleared their rating.
type UserConnection struct {
	ID        uuid.UUID      `json:"id"`
	UserID    id.UserID      `json:"user_id"`
	OtherID   id.UserID      `json:"other_id"`
	Type      ConnectionType `json:"type"`
	Strength  *Strength      `json:"strength"`
	CreatedAt time.Time      `json:"created_at"`
}

// ConnectionSummary is the read shape for a user's connection overview.
type ConnectionSummary struct {
	TotalConnections  int               `json:"total_connections"`
	RecentConnections []*UserConnection `json:"recent_connections"`
}
