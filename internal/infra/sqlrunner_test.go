package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	lastQuery string
	lastArgs  []any
	scanErr   error
}

func (r *recordingExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	r.lastQuery, r.lastArgs = query, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	r.lastQuery, r.lastArgs = query, args
	return errorRow{err: r.scanErr}
}

func (r *recordingExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	r.lastQuery, r.lastArgs = query, args
	return nil, errors.New("not supported")
}

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantStmt   string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "\n--sql 736ba39a-7208-40ca-b325-b4e57eed6e06\nselect 1;\n",
			wantMarker: "736ba39a-7208-40ca-b325-b4e57eed6e06",
			wantStmt:   "select 1;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid rejected", query: "--sql 736BA39A-7208-40CA-B325-B4E57EED6E06\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, stmt, err := extractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got marker %q", marker)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker error: %v", err)
			}
			if marker != tc.wantMarker || stmt != tc.wantStmt {
				t.Fatalf("extractMarker = (%q, %q), want (%q, %q)", marker, stmt, tc.wantMarker, tc.wantStmt)
			}
		})
	}
}

func TestSQLRunnerStripsMarkerBeforeExecuting(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	tag, err := runner.Exec(context.Background(), "--sql 736ba39a-7208-40ca-b325-b4e57eed6e06\nupdate subscribe set plan = $1;", "pro")
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d, want 1", tag.RowsAffected())
	}
	if exec.lastQuery != "update subscribe set plan = $1;" {
		t.Fatalf("executed query = %q", exec.lastQuery)
	}
	if len(exec.lastArgs) != 1 || exec.lastArgs[0] != "pro" {
		t.Fatalf("args not forwarded: %#v", exec.lastArgs)
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "delete from subscribe"); !errors.Is(err, errMissingMarker) {
		t.Fatalf("Exec error = %v, want errMissingMarker", err)
	}
	if err := runner.QueryRow(context.Background(), "select 1").Scan(); !errors.Is(err, errMissingMarker) {
		t.Fatalf("QueryRow error = %v, want errMissingMarker", err)
	}
	if exec.lastQuery != "" {
		t.Fatalf("unmarked query reached the database: %q", exec.lastQuery)
	}
}

func TestSQLRunnerPassesNoRowsThrough(t *testing.T) {
	exec := &recordingExecutor{scanErr: pgx.ErrNoRows}
	runner := NewSQLRunner(exec, zerolog.Nop())

	var v int
	err := runner.QueryRow(context.Background(), "--sql 736ba39a-7208-40ca-b325-b4e57eed6e06\nselect 1;").Scan(&v)
	if !IsNoRows(err) {
		t.Fatalf("Scan error = %v, want no rows", err)
	}
}
