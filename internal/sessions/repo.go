package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSummaryExists = errors.New("session summary already stored")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const summaryColumns = `
	session_id::text, exercise, started_at, ended_at,
	total_reps, form_accuracy, average_score, common_errors,
	total_frames, skipped_frames, phase_changes, abandoned,
	COALESCE(coaching, '')
`

func (r *Repo) Add(ctx context.Context, s StoredSummary) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.add")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", s.SessionID))

	commonErrors := s.CommonErrors
	if commonErrors == nil {
		commonErrors = []formcheck.CommonError{}
	}
	commonErrorsJSON, err := json.Marshal(commonErrors)
	if err != nil {
		return fmt.Errorf("marshal common errors: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO session_summary (
			session_id, exercise, started_at, ended_at,
			total_reps, form_accuracy, average_score, common_errors,
			total_frames, skipped_frames, phase_changes, abandoned, coaching
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
	`,
		s.SessionID,
		string(s.Exercise),
		s.StartedAt,
		s.EndedAt,
		s.TotalReps,
		s.FormAccuracy,
		s.AverageScore,
		commonErrorsJSON,
		s.TotalFrames,
		s.SkippedFrames,
		s.PhaseChanges,
		s.Abandoned,
		s.Coaching,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrSummaryExists
		}
		return wrapMissingTable(err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, sessionID string) (_ *StoredSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", sessionID))

	row := r.db.QueryRow(ctx, `
		SELECT `+summaryColumns+`
		FROM session_summary
		WHERE session_id = $1
	`, sessionID)

	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns summaries ordered by end time, newest first. Pages start at 1.
func (r *Repo) List(ctx context.Context, page, size int) (_ []*StoredSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("size", size))

	limit := size
	offset := (page - 1) * size
	rows, err := r.db.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM session_summary
		ORDER BY ended_at DESC, session_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, wrapMissingTable(err)
	}
	defer rows.Close()

	summaries := make([]*StoredSummary, 0, size)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.count")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM session_summary`).Scan(&count); err != nil {
		return 0, wrapMissingTable(err)
	}
	return count, nil
}

func wrapMissingTable(err error) error {
	if pkg.IsUndefinedTableError(err) {
		return fmt.Errorf("session_summary table missing, were migrations applied? %w", err)
	}
	return err
}

func scanSummary(row pgx.Row) (*StoredSummary, error) {
	var (
		s                StoredSummary
		exercise         string
		commonErrorsJSON []byte
	)
	if err := row.Scan(
		&s.SessionID,
		&exercise,
		&s.StartedAt,
		&s.EndedAt,
		&s.TotalReps,
		&s.FormAccuracy,
		&s.AverageScore,
		&commonErrorsJSON,
		&s.TotalFrames,
		&s.SkippedFrames,
		&s.PhaseChanges,
		&s.Abandoned,
		&s.Coaching,
	); err != nil {
		return nil, err
	}

	s.Exercise = formcheck.ExerciseType(exercise)
	if err := json.Unmarshal(commonErrorsJSON, &s.CommonErrors); err != nil {
		return nil, fmt.Errorf("unmarshal common errors: %w", err)
	}
	s.StartedAt = s.StartedAt.UTC()
	s.EndedAt = s.EndedAt.UTC()

	return &s, nil
}
