// Package report persists final callback reports in SQLite.
//
// Every dispatch attempt for a completed session produces one Record,
// whether delivery succeeded or not. The archive is the operator's
// audit trail: the callback fires at most once per session, so the
// stored record is the only durable copy of what was (or was not)
// delivered.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tusharkanta407/HoneyPot/internal/dispatch"
	hpotel "github.com/Tusharkanta407/HoneyPot/internal/otel"
)

var tracer = hpotel.Tracer("github.com/Tusharkanta407/HoneyPot/internal/report")

// Store persists callback reports in SQLite.
type Store struct {
	db *sql.DB
}

// Record is the archived outcome of one final report dispatch.
type Record struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	Delivered  bool              `json:"delivered"`
	Attempts   int               `json:"attempts"`
	StatusCode int               `json:"status_code,omitempty"`
	Error      string            `json:"error,omitempty"`
	Payload    *dispatch.Payload `json:"payload"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewRecord builds a Record from a dispatch outcome.
func NewRecord(p *dispatch.Payload, out dispatch.Outcome, now time.Time) *Record {
	rec := &Record{
		ID:         uuid.New().String(),
		SessionID:  p.SessionID,
		Delivered:  out.Delivered,
		Attempts:   out.Attempts,
		StatusCode: out.StatusCode,
		Payload:    p,
		CreatedAt:  now.UTC(),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	return rec
}

// NewStore opens (or creates) the report database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening report database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		status_code INTEGER NOT NULL,
		error TEXT NOT NULL,
		report_json TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_session ON reports(session_id);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating report schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives a report record.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	ctx, span := tracer.Start(ctx, "report.save",
		trace.WithAttributes(
			attribute.String("report.id", rec.ID),
			attribute.String("session_id", rec.SessionID),
			attribute.Bool("delivered", rec.Delivered),
		))
	defer span.End()

	reportJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	delivered := 0
	if rec.Delivered {
		delivered = 1
	}

	query := `INSERT INTO reports (id, session_id, delivered, attempts, status_code, error, report_json, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, delivered, rec.Attempts, rec.StatusCode,
		rec.Error, string(reportJSON), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storing report: %w", err)
	}

	return nil
}

// Get retrieves a report by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx, span := tracer.Start(ctx, "report.get",
		trace.WithAttributes(attribute.String("report.id", id)))
	defer span.End()

	var reportJSON string
	query := `SELECT report_json FROM reports WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(reportJSON), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}

	return &rec, nil
}

// List returns archived reports, newest first. Empty sessionID matches
// all sessions; deliveredOnly restricts to successful dispatches.
func (s *Store) List(ctx context.Context, sessionID string, deliveredOnly bool, limit int) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "report.list",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	query := `SELECT report_json FROM reports WHERE 1=1`
	args := []interface{}{}

	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	if deliveredOnly {
		query += ` AND delivered = 1`
	}

	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(reportJSON), &rec); err != nil {
			continue
		}

		results = append(results, rec)
	}

	span.SetAttributes(attribute.Int("report.count", len(results)))
	return results, nil
}
