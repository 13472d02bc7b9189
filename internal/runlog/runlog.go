// Package runlog implements the Run Ledger (C10): one Postgres row per
// transform run recording source, timing, per-key CDM counts, and outcome.
// Grounded on the teacher's internal/repository query/logging idiom, backed
// by internal/database's pgxpool connection.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Outcome is the terminal state of a transform run.
type Outcome string

const (
	OutcomeOK Outcome = "ok"
	// OutcomeAborted is suffixed with the error class at write time, e.g.
	// "aborted:CREDENTIAL_FAILURE".
	OutcomeAborted Outcome = "aborted"
)

// Counts holds the per-CDM-top-level-key row counts for a completed run.
type Counts struct {
	CategoricalVariants int
	Variations          int
	Genes               int
	Conditions          int
	Therapies           int
	Documents           int
	Methods             int
	StatementsEvidence  int
	StatementsAssertions int
}

// Run is a single recorded transform run.
type Run struct {
	ID         uuid.UUID
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Outcome    string
	Counts     Counts
}

// Repository persists Run rows.
type Repository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRepository creates a new run ledger repository.
func NewRepository(db *pgxpool.Pool, logger *logrus.Logger) *Repository {
	return &Repository{db: db, log: logger}
}

// Start inserts a new in-progress run row and returns its generated ID.
func (r *Repository) Start(ctx context.Context, source string) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO transform_runs (id, source, started_at, outcome)
		VALUES ($1, $2, NOW(), 'running')`

	if _, err := r.db.Exec(ctx, query, id, source); err != nil {
		r.log.WithFields(logrus.Fields{"source": source, "error": err}).Error("failed to start run ledger entry")
		return uuid.Nil, fmt.Errorf("starting run: %w", err)
	}

	r.log.WithFields(logrus.Fields{"run_id": id, "source": source}).Info("transform run started")
	return id, nil
}

// formatOutcome renders the terminal outcome column value, suffixing the
// error class onto an aborted run per spec.md §7's failure reporting.
func formatOutcome(outcome Outcome, errClass string) string {
	if outcome == OutcomeAborted && errClass != "" {
		return fmt.Sprintf("aborted:%s", errClass)
	}
	return string(outcome)
}

// Finish records a run's terminal outcome and CDM counts.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, outcome Outcome, errClass string, counts Counts) error {
	finalOutcome := formatOutcome(outcome, errClass)

	query := `
		UPDATE transform_runs
		SET finished_at = NOW(), outcome = $2,
			categorical_variants = $3, variations = $4, genes = $5, conditions = $6,
			therapies = $7, documents = $8, methods = $9,
			statements_evidence = $10, statements_assertions = $11
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, finalOutcome,
		counts.CategoricalVariants, counts.Variations, counts.Genes, counts.Conditions,
		counts.Therapies, counts.Documents, counts.Methods,
		counts.StatementsEvidence, counts.StatementsAssertions,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{"run_id": id, "error": err}).Error("failed to finish run ledger entry")
		return fmt.Errorf("finishing run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	r.log.WithFields(logrus.Fields{"run_id": id, "outcome": finalOutcome}).Info("transform run finished")
	return nil
}

// GetByID retrieves a run by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, source, started_at, finished_at, outcome,
			categorical_variants, variations, genes, conditions,
			therapies, documents, methods, statements_evidence, statements_assertions
		FROM transform_runs
		WHERE id = $1`

	var run Run
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt, &run.Outcome,
		&run.Counts.CategoricalVariants, &run.Counts.Variations, &run.Counts.Genes, &run.Counts.Conditions,
		&run.Counts.Therapies, &run.Counts.Documents, &run.Counts.Methods,
		&run.Counts.StatementsEvidence, &run.Counts.StatementsAssertions,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		r.log.WithFields(logrus.Fields{"run_id": id, "error": err}).Error("failed to get run")
		return nil, fmt.Errorf("getting run: %w", err)
	}

	return &run, nil
}

// Latest retrieves the most recently started run for a source, regardless
// of outcome. Used by the CLI's --update_cached / "load latest" flags to
// locate the CDM artifact to act on.
func (r *Repository) Latest(ctx context.Context, source string) (*Run, error) {
	query := `
		SELECT id, source, started_at, finished_at, outcome,
			categorical_variants, variations, genes, conditions,
			therapies, documents, methods, statements_evidence, statements_assertions
		FROM transform_runs
		WHERE source = $1
		ORDER BY started_at DESC
		LIMIT 1`

	var run Run
	err := r.db.QueryRow(ctx, query, source).Scan(
		&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt, &run.Outcome,
		&run.Counts.CategoricalVariants, &run.Counts.Variations, &run.Counts.Genes, &run.Counts.Conditions,
		&run.Counts.Therapies, &run.Counts.Documents, &run.Counts.Methods,
		&run.Counts.StatementsEvidence, &run.Counts.StatementsAssertions,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no runs found for source %q", source)
		}
		r.log.WithFields(logrus.Fields{"source": source, "error": err}).Error("failed to get latest run")
		return nil, fmt.Errorf("getting latest run: %w", err)
	}

	return &run, nil
}

// Schema is the DDL for the transform_runs table, run once at startup by
// the CLI before the first ledger write (spec.md carries no migration
// framework in scope; golang-migrate was dropped, see DESIGN.md).
const Schema = `
CREATE TABLE IF NOT EXISTS transform_runs (
	id uuid PRIMARY KEY,
	source text NOT NULL,
	started_at timestamptz NOT NULL,
	finished_at timestamptz,
	outcome text NOT NULL,
	categorical_variants integer NOT NULL DEFAULT 0,
	variations integer NOT NULL DEFAULT 0,
	genes integer NOT NULL DEFAULT 0,
	conditions integer NOT NULL DEFAULT 0,
	therapies integer NOT NULL DEFAULT 0,
	documents integer NOT NULL DEFAULT 0,
	methods integer NOT NULL DEFAULT 0,
	statements_evidence integer NOT NULL DEFAULT 0,
	statements_assertions integer NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS transform_runs_source_started_at_idx ON transform_runs (source, started_at DESC);
`

// EnsureSchema creates the transform_runs table if it does not already exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("ensuring run ledger schema: %w", err)
	}
	return nil
}
