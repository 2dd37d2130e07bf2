package db

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type stubDB struct {
	applied map[string]bool
	execs   []string
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, query)
	return pgconn.CommandTag{}, nil
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	version, _ := args[0].(string)
	return stubRow{applied: s.applied[version]}
}

type stubRow struct {
	applied bool
}

func (r stubRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.applied
	return nil
}

func TestMigrationsOrdered(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations() error: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != "001_init" {
		t.Fatalf("first migration = %q, want 001_init", migrations[0].Version)
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Fatalf("migrations out of order: %q before %q", migrations[i-1].Version, migrations[i].Version)
		}
	}
	if !strings.Contains(migrations[0].SQL, "create table if not exists jobs") {
		t.Fatalf("init migration does not create jobs table")
	}
}

func TestMigrateSkipsApplied(t *testing.T) {
	db := &stubDB{applied: map[string]bool{"001_init": true}}
	if err := Migrate(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	for _, q := range db.execs {
		if strings.Contains(q, "create table if not exists jobs") {
			t.Fatalf("applied migration was executed again")
		}
	}
	var seeded bool
	for _, q := range db.execs {
		if strings.Contains(q, "insert into scenes") {
			seeded = true
		}
	}
	if !seeded {
		t.Fatalf("expected seed migration to run")
	}
}
