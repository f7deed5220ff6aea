package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"porchlight/internal/trust/models"
	id "porchlight/pkg/domain"
	"porchlight/pkg/platform/sentinel"
)

// Postgres persists trust scores in PostgreSQL. The optimistic concurrency
// token is the previous score value: the aggregate UPDATE only matches when
// the row still holds entry.ScoreBefore, and the log INSERT rides in the same
// transaction so aggregate and audit trail can never diverge.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetScore(ctx context.Context, userID id.UserID, communityID id.CommunityID) (*models.TrustScore, error) {
	query := `
		SELECT score, last_calculated_at, created_at, updated_at
		FROM trust_scores
		WHERE user_id = $1 AND community_id = $2
	`
	score := models.TrustScore{UserID: userID, CommunityID: communityID}
	err := s.db.QueryRowContext(ctx, query, userID.String(), communityID.String()).
		Scan(&score.Score, &score.LastCalculatedAt, &score.CreatedAt, &score.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get trust score: %w", err)
	}
	return &score, nil
}

func (s *Postgres) ApplyEntry(ctx context.Context, entry *models.TrustScoreLogEntry, isNewAggregate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply entry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if isNewAggregate {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO trust_scores (user_id, community_id, score, last_calculated_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4, $4)
			ON CONFLICT (user_id, community_id) DO NOTHING
		`, entry.UserID.String(), entry.CommunityID.String(), entry.ScoreAfter, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert trust score: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// A concurrent first event created the aggregate; retry with a re-read.
			return sentinel.ErrConflict
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE trust_scores
			SET score = $3, last_calculated_at = $4, updated_at = $4
			WHERE user_id = $1 AND community_id = $2 AND score = $5
		`, entry.UserID.String(), entry.CommunityID.String(), entry.ScoreAfter, entry.CreatedAt, entry.ScoreBefore)
		if err != nil {
			return fmt.Errorf("update trust score: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrConflict
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trust_score_logs
			(id, user_id, community_id, action_type, action_id, points_change, score_before, score_after, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
	`,
		entry.ID.String(), entry.UserID.String(), entry.CommunityID.String(), string(entry.ActionType),
		entry.ActionID, entry.PointsChange, entry.ScoreBefore, entry.ScoreAfter,
		nullableJSON(entry.Metadata), entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append trust score log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply entry tx: %w", err)
	}
	return nil
}

func (s *Postgres) FindEntryByActionID(ctx context.Context, userID id.UserID, communityID id.CommunityID, actionID string) (*models.TrustScoreLogEntry, error) {
	if actionID == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `
		SELECT id, action_type, COALESCE(action_id, ''), points_change, score_before, score_after, metadata, created_at
		FROM trust_score_logs
		WHERE user_id = $1 AND community_id = $2 AND action_id = $3
	`
	entry := models.TrustScoreLogEntry{UserID: userID, CommunityID: communityID}
	var metadata []byte
	err := s.db.QueryRowContext(ctx, query, userID.String(), communityID.String(), actionID).Scan(
		&entry.ID, &entry.ActionType, &entry.ActionID, &entry.PointsChange,
		&entry.ScoreBefore, &entry.ScoreAfter, &metadata, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find log entry by action id: %w", err)
	}
	entry.Metadata = metadata
	return &entry, nil
}

func (s *Postgres) ListLog(ctx context.Context, userID id.UserID, communityID id.CommunityID, limit int, before *LogPosition) ([]*models.TrustScoreLogEntry, error) {
	query := `
		SELECT id, action_type, COALESCE(action_id, ''), points_change, score_before, score_after, metadata, created_at
		FROM trust_score_logs
		WHERE user_id = $1 AND community_id = $2
	`
	args := []any{userID.String(), communityID.String()}
	if before != nil {
		query += ` AND (created_at, id) < ($3, $4::uuid)`
		args = append(args, before.CreatedAt, before.ID.String())
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trust score log: %w", err)
	}
	defer rows.Close()

	var entries []*models.TrustScoreLogEntry
	for rows.Next() {
		entry := models.TrustScoreLogEntry{UserID: userID, CommunityID: communityID}
		var metadata []byte
		if err := rows.Scan(
			&entry.ID, &entry.ActionType, &entry.ActionID, &entry.PointsChange,
			&entry.ScoreBefore, &entry.ScoreAfter, &metadata, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trust score log row: %w", err)
		}
		entry.Metadata = metadata
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust score log: %w", err)
	}
	return entries, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
