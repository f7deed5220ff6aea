// Package models defines the conversation read model. Conversations are
// owned by the messaging system; this core only reads them to apply
// visibility rules.
package models

import (
	"time"

	id "porchlight/pkg/domain"
)

// Conversation is the listing shape for a conversation a user participates
// in. A direct conversation has exactly two participants; anything larger is
// a community conversation.
type Conversation struct {
	ID             id.ConversationID `json:"id"`
	ParticipantIDs []id.UserID       `json:"participant_ids"`
	LastMessage    string            `json:"last_message,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// IsDirect reports whether the conversation is between exactly two users.
func (c *Conversation) IsDirect() bool {
	return len(c.ParticipantIDs) == 2
}

// DirectCounterpart returns the other participant of a direct conversation
// from the viewer's perspective. The second return is false for community
// conversations and for conversations the viewer is not part of.
func (c *Conversation) DirectCounterpart(viewerID id.UserID) (id.UserID, bool) {
	if !c.IsDirect() {
		return id.UserID{}, false
	}
	switch viewerID {
	case c.ParticipantIDs[0]:
		return c.ParticipantIDs[1], true
	case c.ParticipantIDs[1]:
		return c.ParticipantIDs[0], true
	}
	return id.UserID{}, false
}
