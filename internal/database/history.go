package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jalshrestha/Outfit/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS refresh_runs (
		id              UUID PRIMARY KEY,
		source          TEXT NOT NULL,
		trigger         TEXT NOT NULL,
		items_refreshed INTEGER NOT NULL,
		per_source      JSONB NOT NULL DEFAULT '{}',
		errors          JSONB NOT NULL DEFAULT '{}',
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_refresh_runs_started_at ON refresh_runs (started_at DESC);
`

// Querier is the part of DB the history repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// HistoryRepository stores one row per refresh run.
type HistoryRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: slog.Default().With("component", "history"),
	}
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("failed to create refresh_runs table: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Record(ctx context.Context, run models.RefreshRun) error {
	perSource, errs, err := encodeRunMaps(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO refresh_runs
		(id, source, trigger, items_refreshed, per_source, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Exec(ctx, query,
		run.ID, string(run.Source), run.Trigger, run.ItemsRefreshed,
		perSource, errs, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert refresh run: %w", err)
	}

	r.logger.Debug("refresh run recorded", "id", run.ID)
	return nil
}

// Recent returns the newest runs first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	query := `
		SELECT id, source, trigger, items_refreshed, per_source, errors, started_at, finished_at
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RefreshRun{}
	for rows.Next() {
		var (
			run       models.RefreshRun
			source    string
			perSource []byte
			errs      []byte
		)
		if err := rows.Scan(&run.ID, &source, &run.Trigger, &run.ItemsRefreshed,
			&perSource, &errs, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refresh run: %w", err)
		}
		run.Source = models.SourceName(source)
		if err := decodeRunMaps(&run, perSource, errs); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh runs: %w", err)
	}

	return runs, nil
}

// NormalizeLimit maps a requested page size into [1, 100], defaulting to 20.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return min(limit, maxHistoryLimit)
}

func encodeRunMaps(run models.RefreshRun) ([]byte, []byte, error) {
	perSource := run.PerSource
	if perSource == nil {
		perSource = map[string]int{}
	}
	errs := run.Errors
	if errs == nil {
		errs = map[string]string{}
	}

	perSourceJSON, err := json.Marshal(perSource)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal per-source counts: %w", err)
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal errors: %w", err)
	}
	return perSourceJSON, errsJSON, nil
}

func decodeRunMaps(run *models.RefreshRun, perSource, errs []byte) error {
	if len(perSource) > 0 {
		if err := json.Unmarshal(perSource, &run.PerSource); err != nil {
			return fmt.Errorf("failed to unmarshal per-source counts: %w", err)
		}
	}
	if len(errs) > 0 {
		if err := json.Unmarshal(errs, &run.Errors); err != nil {
			return fmt.Errorf("failed to unmarshal errors: %w", err)
		}
		if len(run.Errors) == 0 {
			run.Errors = nil
		}
	}
	return nil
}
