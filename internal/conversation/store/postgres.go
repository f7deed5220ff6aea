package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"porchlight/internal/conversation/models"
	id "porchlight/pkg/domain"
)

// Postgres reads conversations from the messaging schema. Participants are a
// uuid[] column; membership lookups use array containment.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Conversation, error) {
	query := `
		SELECT id, participant_ids, COALESCE(last_message, ''), last_activity_at, created_at
		FROM conversations
		WHERE participant_ids @> ARRAY[$1]::uuid[]
		ORDER BY last_activity_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var rawID string
		var participants pq.StringArray
		if err := rows.Scan(&rawID, &participants, &conv.LastMessage, &conv.LastActivityAt, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		convID, err := id.ParseConversationID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse conversation id: %w", err)
		}
		conv.ID = convID
		conv.ParticipantIDs = make([]id.UserID, 0, len(participants))
		for _, raw := range participants {
			parsed, err := id.ParseUserID(raw)
			if err != nil {
				return nil, fmt.Errorf("parse participant id: %w", err)
			}
			conv.ParticipantIDs = append(conv.ParticipantIDs, parsed)
		}
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return conversations, nil
}
