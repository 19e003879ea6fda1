package tests

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/db"
)

// OpenTestDB connects to DATABASE_URL, applies the embedded migrations and
// empties the auth tables. It skips the test when DATABASE_URL is unset.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres test")
	}

	database, err := db.Open(context.Background(), databaseURL, zap.NewNop())
	if err != nil {
		t.Fatalf("database open must succeed; check DATABASE_URL and that test DB exists: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrations must run successfully: %v", err)
	}
	if err := TruncateAuthTables(context.Background(), database); err != nil {
		t.Fatal(err)
	}
	return database
}

// TruncateAuthTables truncates auth-related tables for a clean test state.
func TruncateAuthTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE sessions, otps, users RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate auth tables: %w", err)
	}
	return nil
}

// LatestCode returns the most recently issued code for email.
func LatestCode(ctx context.Context, db *sql.DB, email string) (string, error) {
	var code string
	err := db.QueryRowContext(ctx,
		`SELECT code FROM otps WHERE email = $1 ORDER BY id DESC LIMIT 1`, email).Scan(&code)
	if err != nil {
		return "", fmt.Errorf("latest code for %s: %w", email, err)
	}
	return code, nil
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
