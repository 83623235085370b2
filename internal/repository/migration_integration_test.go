//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udj/udjserver/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)

	for _, table := range []string{"users", "tickets", "goose_db_version"} {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_TicketsTableSchema(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)

	for _, col := range []string{"id", "user_id", "ticket_hash", "created_at"} {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "tickets", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in tickets table", col)
			}
		})
	}
}

func TestIntegrationMigration_TicketsConstraints(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)
	if err := testutil.TruncateAll(ctx, pool); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	var userA, userB int64
	if err := pool.QueryRow(ctx, `INSERT INTO users (username, password_hash) VALUES ('a', 'x') RETURNING id`).Scan(&userA); err != nil {
		t.Fatalf("insert user a: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO users (username, password_hash) VALUES ('b', 'x') RETURNING id`).Scan(&userB); err != nil {
		t.Fatalf("insert user b: %v", err)
	}

	const hash = "0123456789abcdef0123456789abcdef"
	if _, err := pool.Exec(ctx, `INSERT INTO tickets (id, user_id, ticket_hash) VALUES ('t1', $1, $2)`, userA, hash); err != nil {
		t.Fatalf("insert ticket: %v", err)
	}

	// Same hash for another user
	_, err := pool.Exec(ctx, `INSERT INTO tickets (id, user_id, ticket_hash) VALUES ('t2', $1, $2)`, userB, hash)
	if constraint, ok := uniqueViolation(err); !ok || constraint != constraintTicketHash {
		t.Errorf("expected %s violation, got %v", constraintTicketHash, err)
	}

	// Second ticket for the same user
	_, err = pool.Exec(ctx, `INSERT INTO tickets (id, user_id, ticket_hash) VALUES ('t3', $1, 'fedcba9876543210fedcba9876543210')`, userA)
	if constraint, ok := uniqueViolation(err); !ok || constraint != "tickets_user_id_key" {
		t.Errorf("expected tickets_user_id_key violation, got %v", err)
	}

	// Uppercase hex is rejected by the format check
	_, err = pool.Exec(ctx, `INSERT INTO tickets (id, user_id, ticket_hash) VALUES ('t4', $1, '0123456789ABCDEF0123456789ABCDEF')`, userB)
	if err == nil {
		t.Error("Expected check constraint violation for uppercase ticket hash")
	}

	// Deleting the user cascades to its ticket
	if _, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userA); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE user_id = $1`, userA).Scan(&count); err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if count != 0 {
		t.Errorf("expected tickets to cascade, %d left", count)
	}
}

func TestIntegrationMigration_UsersConstraints(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)
	if err := testutil.TruncateAll(ctx, pool); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	if _, err := pool.Exec(ctx, `INSERT INTO users (username, password_hash) VALUES ('dup', 'x')`); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err := pool.Exec(ctx, `INSERT INTO users (username, password_hash) VALUES ('dup', 'y')`)
	if constraint, ok := uniqueViolation(err); !ok || constraint != "users_username_key" {
		t.Errorf("expected users_username_key violation, got %v", err)
	}

	_, err = pool.Exec(ctx, `INSERT INTO users (username, password_hash) VALUES ('', 'x')`)
	if err == nil {
		t.Error("Expected check constraint violation for empty username")
	}
}

func TestIntegrationMigration_RollbackAndReapply(t *testing.T) {
	ctx, pool, dbURL := newMigrationTestEnv(t)

	if err := MigrateDownTo(ctx, dbURL, 1); err != nil {
		t.Fatalf("MigrateDownTo failed: %v", err)
	}

	exists, err := tableExists(ctx, pool, "tickets")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("tickets table should not exist after rollback")
	}

	version, err := SchemaVersion(ctx, dbURL)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}

	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("reapply migrations: %v", err)
	}

	exists, err = tableExists(ctx, pool, "tickets")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if !exists {
		t.Error("tickets table should exist after reapply")
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, _, dbURL := newMigrationTestEnv(t)

	// Already applied by the test env; a second run must be a no-op.
	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("second apply should not fail: %v", err)
	}

	version, err := SchemaVersion(ctx, dbURL)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return ctx, pool, dbURL
}
