// Package models defines the trust score aggregate and its append-only audit
// log. The aggregate is mutated exclusively by the ledger service; every
// mutation appends exactly one immutable log entry.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "porchlight/pkg/domain"
)

// Score bounds. Deltas that would leave this range are clamped, and the log
// records the clamped values so the audit trail matches what was applied.
const (
	MinScore = 0
	MaxScore = 5000
)

// ActionType enumerates the domain occurrences that move a trust score.
type ActionType string

const (
	ActionExchangeCompleted ActionType = "exchange_completed"
	ActionResourceShared    ActionType = "resource_shared"
	ActionMemberWelcomed    ActionType = "member_welcomed"
	ActionEventHosted       ActionType = "event_hosted"
	ActionMessageReported   ActionType = "message_reported"
	ActionModerationStrike  ActionType = "moderation_strike"
)

// DefaultPoints is the catalog of deltas used when a scoring event does not
// carry an explicit override.
var DefaultPoints = map[ActionType]int{
	ActionExchangeCompleted: 50,
	ActionResourceShared:    20,
	ActionMemberWelcomed:    10,
	ActionEventHosted:       30,
	ActionMessageReported:   -40,
	ActionModerationStrike:  -100,
}

// IsValid reports whether the action type belongs to the catalog.
func (a ActionType) IsValid() bool {
	_, ok := DefaultPoints[a]
	return ok
}

// TrustScore is the per (user, community) aggregate.
type TrustScore struct {
	UserID           id.UserID      `json:"user_id"`
	CommunityID      id.CommunityID `json:"community_id"`
	Score            int            `json:"score"`
	LastCalculatedAt time.Time      `json:"last_calculated_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TrustScoreLogEntry is one immutable audit record. Within a partition,
// entries ordered by CreatedAt chain: entry[i].ScoreAfter ==
// entry[i+1].ScoreBefore, and the newest ScoreAfter equals the aggregate.
type TrustScoreLogEntry struct {
	ID           uuid.UUID       `json:"id"`
	UserID       id.UserID       `json:"user_id"`
	CommunityID  id.CommunityID  `json:"community_id"`
	ActionType   ActionType      `json:"action_type"`
	ActionID     string          `json:"action_id,omitempty"`
	PointsChange int             `json:"points_change"`
	ScoreBefore  int             `json:"score_before"`
	ScoreAfter   int             `json:"score_after"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Clamp bounds a raw score into the valid range.
func Clamp(raw int) int {
	if raw < MinScore {
		return MinScore
	}
	if raw > MaxScore {
		return MaxScore
	}
	return raw
}
