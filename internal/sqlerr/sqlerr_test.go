package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	_ "modernc.org/sqlite"
)

func TestClassifyPostgres(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state string
		want  Code
	}{
		{"23503", ForeignKeyViolation},
		{"23505", UniqueViolation},
		{"23502", NotNullViolation},
		{"23514", CheckViolation},
		{"42P01", Other},
	}
	for _, tt := range tests {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tt.state, ConstraintName: "c"})
		if got := Classify(err); got != tt.want {
			t.Fatalf("Classify(%s) = %v, want %v", tt.state, got, tt.want)
		}
		if ConstraintName(err) != "c" {
			t.Fatalf("ConstraintName(%s) = %q", tt.state, ConstraintName(err))
		}
	}
}

func TestClassifySQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER NOT NULL REFERENCES parent (id),
			code TEXT UNIQUE,
			qty INTEGER CHECK (qty > 0)
		);
		INSERT INTO parent (id) VALUES (1);
		INSERT INTO child (id, parent_id, code, qty) VALUES (1, 1, 'a', 1);
	`); err != nil {
		t.Fatalf("schema: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  Code
	}{
		{"foreign key", `INSERT INTO child (parent_id, code, qty) VALUES (9, 'b', 1)`, ForeignKeyViolation},
		{"unique", `INSERT INTO child (parent_id, code, qty) VALUES (1, 'a', 1)`, UniqueViolation},
		{"not null", `INSERT INTO child (parent_id, code, qty) VALUES (NULL, 'c', 1)`, NotNullViolation},
		{"check", `INSERT INTO child (parent_id, code, qty) VALUES (1, 'd', 0)`, CheckViolation},
	}
	for _, tt := range tests {
		_, err := db.ExecContext(ctx, tt.query)
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if got := Classify(err); got != tt.want {
			t.Fatalf("%s: Classify = %v, want %v (err %v)", tt.name, got, tt.want, err)
		}
	}
}

func TestClassifyOther(t *testing.T) {
	t.Parallel()

	if got := Classify(nil); got != Other {
		t.Fatalf("Classify(nil) = %v", got)
	}
	if got := Classify(errors.New("connection refused")); got != Other {
		t.Fatalf("Classify(plain) = %v", got)
	}
}
