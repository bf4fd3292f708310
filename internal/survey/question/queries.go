package question

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const create = `
INSERT INTO questions (survey_id, text, question_type, "order")
VALUES ($1, $2, $3, $4)
RETURNING id, survey_id, text, question_type, "order"
`

type CreateParams struct {
	SurveyID     uuid.UUID
	Text         string
	QuestionType QuestionType
	Order        int32
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Question, error) {
	row := q.db.QueryRow(ctx, create, arg.SurveyID, arg.Text, arg.QuestionType, arg.Order)
	var item Question
	err := row.Scan(&item.ID, &item.SurveyID, &item.Text, &item.QuestionType, &item.Order)
	return item, err
}

const getByID = `
SELECT id, survey_id, text, question_type, "order"
FROM questions
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Question, error) {
	row := q.db.QueryRow(ctx, getByID, id)
	var item Question
	err := row.Scan(&item.ID, &item.SurveyID, &item.Text, &item.QuestionType, &item.Order)
	return item, err
}

const update = `
UPDATE questions
SET text = $2, question_type = $3, "order" = $4
WHERE id = $1
RETURNING id, survey_id, text, question_type, "order"
`

type UpdateParams struct {
	ID           uuid.UUID
	Text         string
	QuestionType QuestionType
	Order        int32
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Question, error) {
	row := q.db.QueryRow(ctx, update, arg.ID, arg.Text, arg.QuestionType, arg.Order)
	var item Question
	err := row.Scan(&item.ID, &item.SurveyID, &item.Text, &item.QuestionType, &item.Order)
	return item, err
}

const deleteByID = `
DELETE FROM questions
WHERE id = $1
`

// DeleteByID removes a question regardless of which survey owns it; callers
// must check ownership first.
func (q *Queries) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteByID, id)
	return tag.RowsAffected(), err
}

const listBySurveyID = `
SELECT id, survey_id, text, question_type, "order"
FROM questions
WHERE survey_id = $1
ORDER BY "order", id
`

func (q *Queries) ListBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Question, error) {
	rows, err := q.db.Query(ctx, listBySurveyID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Question
	for rows.Next() {
		var item Question
		if err := rows.Scan(&item.ID, &item.SurveyID, &item.Text, &item.QuestionType, &item.Order); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const getCreatorIDByQuestionID = `
SELECT s.creator_id
FROM questions q
JOIN surveys s ON s.id = q.survey_id
WHERE q.id = $1
`

func (q *Queries) GetCreatorIDByQuestionID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, getCreatorIDByQuestionID, id)
	var creatorID uuid.UUID
	err := row.Scan(&creatorID)
	return creatorID, err
}

const createChoice = `
INSERT INTO choices (question_id, text)
VALUES ($1, $2)
RETURNING id, question_id, text
`

type CreateChoiceParams struct {
	QuestionID uuid.UUID
	Text       string
}

func (q *Queries) CreateChoice(ctx context.Context, arg CreateChoiceParams) (Choice, error) {
	row := q.db.QueryRow(ctx, createChoice, arg.QuestionID, arg.Text)
	var item Choice
	err := row.Scan(&item.ID, &item.QuestionID, &item.Text)
	return item, err
}

const deleteChoicesByQuestionID = `
DELETE FROM choices
WHERE question_id = $1
`

func (q *Queries) DeleteChoicesByQuestionID(ctx context.Context, questionID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteChoicesByQuestionID, questionID)
	return err
}

const listChoicesByQuestionID = `
SELECT id, question_id, text
FROM choices
WHERE question_id = $1
ORDER BY id
`

func (q *Queries) ListChoicesByQuestionID(ctx context.Context, questionID uuid.UUID) ([]Choice, error) {
	rows, err := q.db.Query(ctx, listChoicesByQuestionID, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Choice
	for rows.Next() {
		var item Choice
		if err := rows.Scan(&item.ID, &item.QuestionID, &item.Text); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const listChoicesBySurveyID = `
SELECT c.id, c.question_id, c.text
FROM choices c
JOIN questions q ON q.id = c.question_id
WHERE q.survey_id = $1
ORDER BY q."order", c.id
`

func (q *Queries) ListChoicesBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Choice, error) {
	rows, err := q.db.Query(ctx, listChoicesBySurveyID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Choice
	for rows.Next() {
		var item Choice
		if err := rows.Scan(&item.ID, &item.QuestionID, &item.Text); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
