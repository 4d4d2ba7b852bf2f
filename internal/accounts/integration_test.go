//go:build integration

package accounts_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rei-da-derivada/identity/internal/accounts"
	"github.com/rei-da-derivada/identity/internal/claims"
	"github.com/rei-da-derivada/identity/internal/email"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set — skipping integration test")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect to postgres: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM accounts WHERE email LIKE '%@integration.test'`)
		db.Close()
	})
	return db
}

func TestRepository_uniqueConstraintMapsToDuplicateEmail(t *testing.T) {
	db := setupDB(t)
	repo := accounts.NewAccountRepository(db)
	ctx := context.Background()

	a := &accounts.Account{Email: "dup@integration.test", Username: "dup@integration.test"}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("first create: %v", err)
	}

	b := &accounts.Account{Email: "dup@integration.test", Username: "dup@integration.test"}
	if err := repo.Create(ctx, b); !errors.Is(err, accounts.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestResolver_concurrentFirstSignIn_postgres(t *testing.T) {
	db := setupDB(t)
	repo := accounts.NewAccountRepository(db)
	logger := zap.NewNop()
	r := accounts.NewResolver(repo, email.NewLogSender(logger), logger)

	const k = 16
	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := r.Resolve(context.Background(), &claims.ClaimSet{
				Email:     "race@integration.test",
				GivenName: "Ana",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent resolve failed: %v", err)
		}
	}

	var n int
	if err := db.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM accounts WHERE email = $1`, "race@integration.test",
	).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}
