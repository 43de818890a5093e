package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"scalemap.app/engine/internal/model"
)

// NewPostgresStores builds the production store set over a pgx pool.
func NewPostgresStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Assessments: &pgAssessments{pool: pool},
		Analyses:    &pgAnalyses{pool: pool},
		Gaps:        &pgGaps{pool: pool},
		Pauses:      &pgPauses{pool: pool},
		Extensions:  &pgExtensions{pool: pool},
	}
}

func marshalPayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return data, nil
}

// --- Assessments ------------------------------------------------------------

type pgAssessments struct {
	pool *pgxpool.Pool
}

func (s *pgAssessments) Create(ctx context.Context, a *model.Assessment) error {
	a.Version = 1
	payload, err := marshalPayload(a)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, status, version, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, string(a.Status), a.Version, payload, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}
	return nil
}

func (s *pgAssessments) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	var payload []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT payload, version FROM assessments WHERE id = $1`, id).
		Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching assessment: %w", err)
	}
	var a model.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("unmarshaling assessment: %w", err)
	}
	a.Version = version
	return &a, nil
}

func (s *pgAssessments) Update(ctx context.Context, a *model.Assessment) error {
	next := *a
	next.Version = a.Version + 1
	payload, err := marshalPayload(&next)
	if err != nil {
		return err
	}
	// Optimistic check on version: the read-modify-write loses to any
	// concurrent writer rather than clobbering it.
	tag, err := s.pool.Exec(ctx,
		`UPDATE assessments
		 SET status = $1, version = version + 1, payload = $2, updated_at = $3
		 WHERE id = $4 AND version = $5`,
		string(next.Status), payload, next.UpdatedAt, next.ID, a.Version)
	if err != nil {
		return fmt.Errorf("updating assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a version race.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM assessments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking assessment existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	a.Version = next.Version
	return nil
}

func (s *pgAssessments) ListByStatus(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT payload, version FROM assessments
		 WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var payload []byte
		var version int64
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		var a model.Assessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("unmarshaling assessment: %w", err)
		}
		a.Version = version
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Analyses ---------------------------------------------------------------

type pgAnalyses struct {
	pool *pgxpool.Pool
}

func (s *pgAnalyses) Put(ctx context.Context, analysis *model.GapAnalysis) error {
	payload, err := marshalPayload(analysis)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO gap_analyses (assessment_id, payload, analyzed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (assessment_id)
		 DO UPDATE SET payload = EXCLUDED.payload, analyzed_at = EXCLUDED.analyzed_at`,
		analysis.AssessmentID, payload, analysis.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("upserting gap analysis: %w", err)
	}
	return nil
}

func (s *pgAnalyses) GetLatest(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM gap_analyses WHERE assessment_id = $1`, assessmentID).
		Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching gap analysis: %w", err)
	}
	var a model.GapAnalysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("unmarshaling gap analysis: %w", err)
	}
	return &a, nil
}

// --- Gaps -------------------------------------------------------------------

type pgGaps struct {
	pool *pgxpool.Pool
}

func (s *pgGaps) Create(ctx context.Context, gap *model.AssessmentGap) error {
	payload, err := marshalPayload(gap)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessment_gaps (id, assessment_id, resolved, payload, detected_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id)
		 DO UPDATE SET resolved = EXCLUDED.resolved, payload = EXCLUDED.payload`,
		gap.ID, gap.AssessmentID, gap.Resolved, payload, gap.DetectedAt)
	if err != nil {
		return fmt.Errorf("inserting gap: %w", err)
	}
	return nil
}

func (s *pgGaps) GetByID(ctx context.Context, id int64) (*model.AssessmentGap, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM assessment_gaps WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching gap: %w", err)
	}
	var g model.AssessmentGap
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, fmt.Errorf("unmarshaling gap: %w", err)
	}
	return &g, nil
}

func (s *pgGaps) Update(ctx context.Context, gap *model.AssessmentGap) error {
	payload, err := marshalPayload(gap)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE assessment_gaps SET resolved = $1, payload = $2 WHERE id = $3`,
		gap.Resolved, payload, gap.ID)
	if err != nil {
		return fmt.Errorf("updating gap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgGaps) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	return s.list(ctx,
		`SELECT payload FROM assessment_gaps
		 WHERE assessment_id = $1 ORDER BY detected_at`, assessmentID)
}

func (s *pgGaps) ListUnresolved(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	return s.list(ctx,
		`SELECT payload FROM assessment_gaps
		 WHERE assessment_id = $1 AND NOT resolved ORDER BY detected_at`, assessmentID)
}

func (s *pgGaps) list(ctx context.Context, query string, args ...any) ([]model.AssessmentGap, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gaps: %w", err)
	}
	defer rows.Close()

	var out []model.AssessmentGap
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning gap: %w", err)
		}
		var g model.AssessmentGap
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("unmarshaling gap: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// --- Pauses -----------------------------------------------------------------

type pgPauses struct {
	pool *pgxpool.Pool
}

func (s *pgPauses) CreateActive(ctx context.Context, pause *model.TimelinePauseEvent) error {
	pause.Active = true
	payload, err := marshalPayload(pause)
	if err != nil {
		return err
	}
	// The partial unique index on (assessment_id) WHERE active turns a
	// concurrent double-pause into a unique violation here.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO timeline_pauses (id, assessment_id, active, payload, paused_at)
		 VALUES ($1, $2, TRUE, $3, $4)`,
		pause.ID, pause.AssessmentID, payload, pause.PausedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrActivePauseExists
		}
		return fmt.Errorf("inserting pause: %w", err)
	}
	return nil
}

func (s *pgPauses) GetActive(ctx context.Context, assessmentID int64) (*model.TimelinePauseEvent, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM timeline_pauses
		 WHERE assessment_id = $1 AND active`, assessmentID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching active pause: %w", err)
	}
	var p model.TimelinePauseEvent
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling pause: %w", err)
	}
	return &p, nil
}

func (s *pgPauses) Close(ctx context.Context, pause *model.TimelinePauseEvent) error {
	pause.Active = false
	payload, err := marshalPayload(pause)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE timeline_pauses SET active = FALSE, payload = $1 WHERE id = $2`,
		payload, pause.ID)
	if err != nil {
		return fmt.Errorf("closing pause: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgPauses) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelinePauseEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM timeline_pauses
		 WHERE assessment_id = $1 ORDER BY paused_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("listing pauses: %w", err)
	}
	defer rows.Close()

	var out []model.TimelinePauseEvent
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning pause: %w", err)
		}
		var p model.TimelinePauseEvent
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshaling pause: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Extensions -------------------------------------------------------------

type pgExtensions struct {
	pool *pgxpool.Pool
}

func (s *pgExtensions) Create(ctx context.Context, ext *model.TimelineExtension) error {
	payload, err := marshalPayload(ext)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO timeline_extensions (id, assessment_id, payload, requested_at)
		 VALUES ($1, $2, $3, $4)`,
		ext.ID, ext.AssessmentID, payload, ext.RequestedAt)
	if err != nil {
		return fmt.Errorf("inserting extension: %w", err)
	}
	return nil
}

func (s *pgExtensions) CountByAssessment(ctx context.Context, assessmentID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM timeline_extensions WHERE assessment_id = $1`,
		assessmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting extensions: %w", err)
	}
	return count, nil
}

func (s *pgExtensions) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelineExtension, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM timeline_extensions
		 WHERE assessment_id = $1 ORDER BY requested_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("listing extensions: %w", err)
	}
	defer rows.Close()

	var out []model.TimelineExtension
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning extension: %w", err)
		}
		var e model.TimelineExtension
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshaling extension: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
