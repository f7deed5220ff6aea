// Package domain holds typed identifiers shared by every feature package.
// Distinct ID types make it a compile error to hand a community ID to a
// function expecting a user ID.
package domain

import (
	"fmt"

	"github.com/google/uuid"

	dErrors "porchlight/pkg/domain-errors"
)

type (
	// UserID identifies a member across communities.
	UserID uuid.UUID
	// CommunityID identifies a neighborhood community.
	CommunityID uuid.UUID
	// ConversationID identifies a direct or community conversation.
	ConversationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id CommunityID) String() string    { return uuid.UUID(id).String() }
func (id ConversationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CommunityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ConversationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's text encoding, so each ID type
// provides its own. JSON round-trips as the canonical string form.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id CommunityID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ConversationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CommunityID) UnmarshalText(text []byte) error {
	parsed, err := ParseCommunityID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ConversationID) UnmarshalText(text []byte) error {
	parsed, err := ParseConversationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. All Parse* helpers funnel through here so every ID type
// rejects bad input identically.
func parseUUID(kind, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid %s", kind))
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID("user_id", raw)
	return UserID(parsed), err
}

func ParseCommunityID(raw string) (CommunityID, error) {
	parsed, err := parseUUID("community_id", raw)
	return CommunityID(parsed), err
}

func ParseConversationID(raw string) (ConversationID, error) {
	parsed, err := parseUUID("conversation_id", raw)
	return ConversationID(parsed), err
}
