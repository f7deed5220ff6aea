//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is the full DDL the stores expect. Applied once per container.
const schema = `
CREATE TABLE IF NOT EXISTS trust_scores (
	user_id            uuid        NOT NULL,
	community_id       uuid        NOT NULL,
	score              integer     NOT NULL,
	last_calculated_at timestamptz NOT NULL,
	created_at         timestamptz NOT NULL,
	updated_at         timestamptz NOT NULL,
	PRIMARY KEY (user_id, community_id)
);

CREATE TABLE IF NOT EXISTS trust_score_logs (
	id            uuid        PRIMARY KEY,
	user_id       uuid        NOT NULL,
	community_id  uuid        NOT NULL,
	action_type   text        NOT NULL,
	action_id     text,
	points_change integer     NOT NULL,
	score_before  integer     NOT NULL,
	score_after   integer     NOT NULL,
	metadata      jsonb,
	created_at    timestamptz NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS trust_score_logs_action_id_key
	ON trust_score_logs (user_id, community_id, action_id)
	WHERE action_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS trust_score_logs_partition_idx
	ON trust_score_logs (user_id, community_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS user_connections (
	id         uuid        PRIMARY KEY,
	user_id    uuid        NOT NULL,
	other_id   uuid        NOT NULL,
	type       text        NOT NULL,
	strength   text,
	created_at timestamptz NOT NULL,
	UNIQUE (user_id, other_id)
);

CREATE TABLE IF NOT EXISTS blocked_users (
	blocker_id uuid        NOT NULL,
	blocked_id uuid        NOT NULL,
	created_at timestamptz NOT NULL,
	PRIMARY KEY (blocker_id, blocked_id)
);

CREATE TABLE IF NOT EXISTS conversations (
	id               uuid        PRIMARY KEY,
	participant_ids  uuid[]      NOT NULL,
	last_message     text,
	last_activity_at timestamptz NOT NULL,
	created_at       timestamptz NOT NULL
);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// database handle and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("porchlight_test"),
		tcpostgres.WithUsername("porchlight"),
		tcpostgres.WithPassword("porchlight"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// No t.Cleanup: the container is shared across suites and reaped by Ryuk.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables truncates the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
