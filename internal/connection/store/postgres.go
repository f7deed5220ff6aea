package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"porchlight/internal/connection/models"
	id "porchlight/pkg/domain"
	"porchlight/pkg/platform/sentinel"
)

// Postgres persists connections in PostgreSQL. The upsert relies on the
// unique (user_id, other_id) constraint; only strength moves on conflict so
// created_at always reflects the original record.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Upsert(ctx context.Context, conn *models.UserConnection) (*models.UserConnection, error) {
	query := `
		INSERT INTO user_connections (id, user_id, other_id, type, strength, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, other_id) DO UPDATE SET
			strength = EXCLUDED.strength
		RETURNING id, type, strength, created_at
	`
	result := models.UserConnection{UserID: conn.UserID, OtherID: conn.OtherID}
	var strength sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		conn.ID.String(), conn.UserID.String(), conn.OtherID.String(),
		string(conn.Type), strengthValue(conn.Strength), conn.CreatedAt,
	).Scan(&result.ID, &result.Type, &strength, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert connection: %w", err)
	}
	result.Strength = strengthFromNull(strength)
	return &result, nil
}

func (s *Postgres) Find(ctx context.Context, userID, otherID id.UserID) (*models.UserConnection, error) {
	query := `
		SELECT id, type, strength, created_at
		FROM user_connections
		WHERE user_id = $1 AND other_id = $2
	`
	conn := models.UserConnection{UserID: userID, OtherID: otherID}
	var strength sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID.String(), otherID.String()).
		Scan(&conn.ID, &conn.Type, &strength, &conn.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find connection: %w", err)
	}
	conn.Strength = strengthFromNull(strength)
	return &conn, nil
}

func (s *Postgres) CountByUser(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_connections WHERE user_id = $1`, userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count connections: %w", err)
	}
	return count, nil
}

func (s *Postgres) ListRecent(ctx context.Context, userID id.UserID, limit int) ([]*models.UserConnection, error) {
	query := `
		SELECT id, other_id, type, strength, created_at
		FROM user_connections
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent connections: %w", err)
	}
	defer rows.Close()

	var connections []*models.UserConnection
	for rows.Next() {
		conn := models.UserConnection{UserID: userID}
		var strength sql.NullString
		var otherID string
		if err := rows.Scan(&conn.ID, &otherID, &conn.Type, &strength, &conn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan connection row: %w", err)
		}
		parsed, err := id.ParseUserID(otherID)
		if err != nil {
			return nil, fmt.Errorf("parse other_id: %w", err)
		}
		conn.OtherID = parsed
		conn.Strength = strengthFromNull(strength)
		connections = append(connections, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection rows: %w", err)
	}
	return connections, nil
}

func strengthValue(s *models.Strength) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func strengthFromNull(s sql.NullString) *models.Strength {
	if !s.Valid {
		return nil
	}
	strength := models.Strength(s.String)
	return &strength
}
