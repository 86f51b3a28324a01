package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// PostgresArchive implements the Archive interface using pgx/v5.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive creates a new PostgresArchive.
func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresArchive) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveRecord upserts a record keyed by analysis id. Workers archive the same
// id at most once per terminal transition, so the upsert only matters when a
// retried write races a previous success.
func (s *PostgresArchive) SaveRecord(ctx context.Context, rec *models.AnalysisRecord) error {
	var resultJSON []byte
	if rec.Result != nil {
		b, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshal detection result: %w", err)
		}
		resultJSON = b
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_records
		   (id, file_kind, priority, submitted_by, status, result, error_message,
		    processing_seconds, created_at, updated_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   result = EXCLUDED.result,
		   error_message = EXCLUDED.error_message,
		   processing_seconds = EXCLUDED.processing_seconds,
		   updated_at = EXCLUDED.updated_at,
		   started_at = EXCLUDED.started_at,
		   completed_at = EXCLUDED.completed_at`,
		rec.ID, string(rec.FileKind), int(rec.Priority), rec.SubmittedBy, rec.Status,
		resultJSON, rec.ErrorMessage, rec.ProcessingSeconds,
		rec.CreatedAt, rec.UpdatedAt, rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("save analysis record: %w", err)
	}
	return nil
}

// GetRecord loads one archived record by analysis id.
func (s *PostgresArchive) GetRecord(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, file_kind, priority, submitted_by, status, result, error_message,
		        processing_seconds, created_at, updated_at, started_at, completed_at
		 FROM analysis_records WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis record: %w", err)
	}
	return rec, nil
}

// ListRecent returns archived records newest-first.
func (s *PostgresArchive) ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_kind, priority, submitted_by, status, result, error_message,
		        processing_seconds, created_at, updated_at, started_at, completed_at
		 FROM analysis_records ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	var recs []*models.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// PurgeBefore deletes archived records last updated before cutoff and reports
// how many were removed.
func (s *PostgresArchive) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analysis_records WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge analysis records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*models.AnalysisRecord, error) {
	var (
		rec        models.AnalysisRecord
		fileKind   string
		priority   int
		resultJSON []byte
	)
	if err := row.Scan(&rec.ID, &fileKind, &priority, &rec.SubmittedBy, &rec.Status,
		&resultJSON, &rec.ErrorMessage, &rec.ProcessingSeconds,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.StartedAt, &rec.CompletedAt); err != nil {
		return nil, err
	}
	rec.FileKind = models.FileKind(fileKind)
	rec.Priority = models.Priority(priority)
	if len(resultJSON) > 0 {
		var det models.Detection
		if err := json.Unmarshal(resultJSON, &det); err != nil {
			return nil, fmt.Errorf("unmarshal detection result: %w", err)
		}
		rec.Result = &det
	}
	return &rec, nil
}

var _ Archive = (*PostgresArchive)(nil)
