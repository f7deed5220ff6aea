package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"porchlight/internal/block/models"
	id "porchlight/pkg/domain"
)

// Postgres persists blocks in PostgreSQL. Idempotency rides on the unique
// (blocker_id, blocked_id) constraint; a conflicting insert falls back to
// reading the original row so the first CreatedAt survives.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Insert(ctx context.Context, block *models.BlockedUser) (*models.BlockedUser, bool, error) {
	query := `
		INSERT INTO blocked_users (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
		RETURNING created_at
	`
	result := models.BlockedUser{BlockerID: block.BlockerID, BlockedID: block.BlockedID}
	err := s.db.QueryRowContext(ctx, query,
		block.BlockerID.String(), block.BlockedID.String(), block.CreatedAt,
	).Scan(&result.CreatedAt)
	if err == nil {
		return &result, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert block: %w", err)
	}

	// Conflict: the pair already exists, return the original record.
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2`,
		block.BlockerID.String(), block.BlockedID.String(),
	).Scan(&result.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("read existing block: %w", err)
	}
	return &result, false, nil
}

func (s *Postgres) Delete(ctx context.Context, blockerID, blockedID id.UserID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID.String(), blockedID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *Postgres) ExistsEither(ctx context.Context, userID, otherID id.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocked_users
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, userID.String(), otherID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListByBlocker(ctx context.Context, blockerID id.UserID) ([]*models.BlockedUser, error) {
	query := `
		SELECT blocked_id, created_at
		FROM blocked_users
		WHERE blocker_id = $1
		ORDER BY created_at DESC, blocked_id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, blockerID.String())
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.BlockedUser
	for rows.Next() {
		block := models.BlockedUser{BlockerID: blockerID}
		var blockedID string
		if err := rows.Scan(&blockedID, &block.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		parsed, err := id.ParseUserID(blockedID)
		if err != nil {
			return nil, fmt.Errorf("parse blocked_id: %w", err)
		}
		block.BlockedID = parsed
		blocks = append(blocks, &block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block rows: %w", err)
	}
	return blocks, nil
}
