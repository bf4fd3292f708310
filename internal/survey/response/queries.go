package response

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

const create = `
INSERT INTO responses (survey_id, respondent_id)
VALUES ($1, $2)
RETURNING id, survey_id, respondent_id, submitted_at
`

type CreateParams struct {
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Response, error) {
	row := q.db.QueryRow(ctx, create, arg.SurveyID, arg.RespondentID)
	var r Response
	err := row.Scan(&r.ID, &r.SurveyID, &r.RespondentID, &r.SubmittedAt)
	return r, err
}

const createAnswer = `
INSERT INTO answers (response_id, question_id, body)
VALUES ($1, $2, $3)
RETURNING id, response_id, question_id, body
`

type CreateAnswerParams struct {
	ResponseID uuid.UUID
	QuestionID uuid.UUID
	Body       pgtype.Text
}

func (q *Queries) CreateAnswer(ctx context.Context, arg CreateAnswerParams) (Answer, error) {
	row := q.db.QueryRow(ctx, createAnswer, arg.ResponseID, arg.QuestionID, arg.Body)
	var a Answer
	err := row.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &a.Body)
	return a, err
}

const createAnswerChoice = `
INSERT INTO answer_choices (answer_id, choice_id)
VALUES ($1, $2)
`

type CreateAnswerChoiceParams struct {
	AnswerID uuid.UUID
	ChoiceID uuid.UUID
}

func (q *Queries) CreateAnswerChoice(ctx context.Context, arg CreateAnswerChoiceParams) error {
	_, err := q.db.Exec(ctx, createAnswerChoice, arg.AnswerID, arg.ChoiceID)
	return err
}

const listBySurveyID = `
SELECT id, survey_id, respondent_id, submitted_at
FROM responses
WHERE survey_id = $1
ORDER BY submitted_at
`

func (q *Queries) ListBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Response, error) {
	rows, err := q.db.Query(ctx, listBySurveyID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.RespondentID, &r.SubmittedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listAnswersBySurveyID = `
SELECT a.id, a.response_id, a.question_id, a.body
FROM answers a
JOIN responses r ON r.id = a.response_id
WHERE r.survey_id = $1
ORDER BY r.submitted_at, a.id
`

func (q *Queries) ListAnswersBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Answer, error) {
	rows, err := q.db.Query(ctx, listAnswersBySurveyID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &a.Body); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type AnswerChoiceRow struct {
	AnswerID uuid.UUID
	ChoiceID uuid.UUID
}

const listAnswerChoicesBySurveyID = `
SELECT ac.answer_id, ac.choice_id
FROM answer_choices ac
JOIN answers a ON a.id = ac.answer_id
JOIN responses r ON r.id = a.response_id
WHERE r.survey_id = $1
`

func (q *Queries) ListAnswerChoicesBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]AnswerChoiceRow, error) {
	rows, err := q.db.Query(ctx, listAnswerChoicesBySurveyID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AnswerChoiceRow
	for rows.Next() {
		var r AnswerChoiceRow
		if err := rows.Scan(&r.AnswerID, &r.ChoiceID); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
