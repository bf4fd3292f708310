package response

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Response struct {
	ID           uuid.UUID
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
	SubmittedAt  pgtype.Timestamptz
}

type Answer struct {
	ID         uuid.UUID
	ResponseID uuid.UUID
	QuestionID uuid.UUID
	Body       pgtype.Text
}

// AnswerParam is one raw submitted value keyed by question: Body for the
// scalar types, ChoiceIDs for the choice types.
type AnswerParam struct {
	QuestionID uuid.UUID
	Body       string
	ChoiceIDs  []uuid.UUID
}
