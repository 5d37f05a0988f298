package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "processed_sessions_pkey", TableName: "processed_sessions", Message: "duplicate key"}
	err := fmt.Errorf("claim: %w", Wrap(CodeConflict, pgErr, "session already claimed"))

	d := Dump(err)
	if d.Code != CodeConflict || d.PGCode != "23505" || d.PGConstraint != "processed_sessions_pkey" {
		t.Fatalf("unexpected dump %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}

	fields := d.Fields()
	if fields["pg_table"] != "processed_sessions" || fields["error_code"] != CodeConflict {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty pg_column should be omitted")
	}
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	d := Dump(&pq.Error{Code: "40001", Table: "orders", Message: "serialization failure"})
	if d.PGCode != "40001" || d.PGTable != "orders" || d.Code != CodeInternal {
		t.Fatalf("unexpected dump %+v", d)
	}
}

func TestDumpStepAndRetryable(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("timeout"), "fetch attachment").WithDetails(map[string]any{"step": "attachments"})
	fields := Dump(err).Fields()
	if fields["step"] != "attachments" || fields["retryable"] != true {
		t.Fatalf("unexpected fields %v", fields)
	}

	plain := Dump(stdErrors.New("boom")).Fields()
	if _, ok := plain["error_chain"]; ok {
		t.Fatalf("single-error chain should be omitted: %v", plain)
	}
	if plain["error_code"] != CodeInternal {
		t.Fatalf("untyped errors dump as internal, got %v", plain["error_code"])
	}
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("nil error should dump empty")
	}
}
