package survey

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const surveyColumns = `id, title, description, creator_id, target_audience, start_date, end_date, is_active, is_public, public_id, created_at`

func scanSurvey(row pgx.Row) (Survey, error) {
	var s Survey
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.CreatorID, &s.TargetAudience, &s.StartDate, &s.EndDate, &s.IsActive, &s.IsPublic, &s.PublicID, &s.CreatedAt)
	return s, err
}

func collectSurveys(rows pgx.Rows) ([]Survey, error) {
	defer rows.Close()
	var items []Survey
	for rows.Next() {
		var s Survey
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatorID, &s.TargetAudience, &s.StartDate, &s.EndDate, &s.IsActive, &s.IsPublic, &s.PublicID, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const create = `
INSERT INTO surveys (title, description, creator_id, target_audience, start_date, end_date, is_active, is_public)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + surveyColumns

type CreateParams struct {
	Title          string
	Description    string
	CreatorID      uuid.UUID
	TargetAudience Audience
	StartDate      pgtype.Timestamptz
	EndDate        pgtype.Timestamptz
	IsActive       bool
	IsPublic       bool
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Survey, error) {
	return scanSurvey(q.db.QueryRow(ctx, create,
		arg.Title, arg.Description, arg.CreatorID, arg.TargetAudience,
		arg.StartDate, arg.EndDate, arg.IsActive, arg.IsPublic))
}

const getByID = `
SELECT ` + surveyColumns + `
FROM surveys
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Survey, error) {
	return scanSurvey(q.db.QueryRow(ctx, getByID, id))
}

const getByPublicID = `
SELECT ` + surveyColumns + `
FROM surveys
WHERE public_id = $1
`

func (q *Queries) GetByPublicID(ctx context.Context, publicID uuid.UUID) (Survey, error) {
	return scanSurvey(q.db.QueryRow(ctx, getByPublicID, publicID))
}

// public_id is deliberately absent from the update set: it is immutable once
// assigned.
const update = `
UPDATE surveys
SET title = $2, description = $3, target_audience = $4, start_date = $5, end_date = $6, is_active = $7, is_public = $8
WHERE id = $1
RETURNING ` + surveyColumns

type UpdateParams struct {
	ID             uuid.UUID
	Title          string
	Description    string
	TargetAudience Audience
	StartDate      pgtype.Timestamptz
	EndDate        pgtype.Timestamptz
	IsActive       bool
	IsPublic       bool
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Survey, error) {
	return scanSurvey(q.db.QueryRow(ctx, update,
		arg.ID, arg.Title, arg.Description, arg.TargetAudience,
		arg.StartDate, arg.EndDate, arg.IsActive, arg.IsPublic))
}

const deleteByID = `
DELETE FROM surveys
WHERE id = $1
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteByID, id)
	return tag.RowsAffected(), err
}

const listByCreator = `
SELECT ` + surveyColumns + `
FROM surveys
WHERE creator_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]Survey, error) {
	rows, err := q.db.Query(ctx, listByCreator, creatorID)
	if err != nil {
		return nil, err
	}
	return collectSurveys(rows)
}

// listOpenForRespondent mirrors the respondent-facing listing: active surveys
// inside their time window, audience-matched, excluding the respondent's own
// surveys and ones already answered.
const listOpenForRespondent = `
SELECT ` + surveyColumns + `
FROM surveys s
WHERE s.is_active
  AND s.creator_id <> $1
  AND (s.start_date IS NULL OR s.start_date <= now())
  AND (s.end_date IS NULL OR s.end_date >= now())
  AND (s.target_audience = 'ALL' OR s.target_audience = $2)
  AND NOT EXISTS (
    SELECT 1 FROM responses r
    WHERE r.survey_id = s.id AND r.respondent_id = $1
  )
ORDER BY s.created_at DESC
`

type ListOpenForRespondentParams struct {
	RespondentID uuid.UUID
	UserType     string
}

func (q *Queries) ListOpenForRespondent(ctx context.Context, arg ListOpenForRespondentParams) ([]Survey, error) {
	rows, err := q.db.Query(ctx, listOpenForRespondent, arg.RespondentID, arg.UserType)
	if err != nil {
		return nil, err
	}
	return collectSurveys(rows)
}

const hasResponded = `
SELECT EXISTS (
  SELECT 1 FROM responses
  WHERE survey_id = $1 AND respondent_id = $2
)
`

type HasRespondedParams struct {
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
}

func (q *Queries) HasResponded(ctx context.Context, arg HasRespondedParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasResponded, arg.SurveyID, arg.RespondentID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
