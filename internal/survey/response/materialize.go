package response

import (
	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// answerInsert is one planned answer row with the choices to attach to it.
type answerInsert struct {
	QuestionID uuid.UUID
	Body       pgtype.Text
	ChoiceIDs  []uuid.UUID
}

// buildAnswerPlan validates the raw payload against the survey's questions
// and produces the answer rows to insert, in question order. It is pure: the
// submit transaction only executes the plan.
//
// Dispatch per question type:
//   - TEXT / TEXTAREA / RATING: always one answer row, body taken from the
//     payload (absent payload means an empty body; RATING is stored as text
//     with no numeric validation here);
//   - CHOICE: one answer with exactly the one submitted choice, or no answer
//     when nothing was selected;
//   - MULTIPLE_CHOICE: one answer with every submitted choice, or no answer
//     when none.
//
// A submitted choice id that does not exist or belongs to a different
// question fails the whole plan with ErrValidationFailed.
func buildAnswerPlan(questions []question.Question, choices []question.Choice, payload []AnswerParam) ([]answerInsert, error) {
	byQuestion := make(map[uuid.UUID]AnswerParam, len(payload))
	known := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, p := range payload {
		if !known[p.QuestionID] {
			return nil, internal.ErrValidationFailed
		}
		byQuestion[p.QuestionID] = p
	}

	choiceOwner := make(map[uuid.UUID]uuid.UUID, len(choices))
	for _, c := range choices {
		choiceOwner[c.ID] = c.QuestionID
	}

	var plan []answerInsert
	for _, q := range questions {
		p := byQuestion[q.ID]

		switch q.QuestionType {
		case question.TypeText, question.TypeTextarea, question.TypeRating:
			plan = append(plan, answerInsert{
				QuestionID: q.ID,
				Body:       pgtype.Text{String: p.Body, Valid: true},
			})

		case question.TypeChoice:
			if len(p.ChoiceIDs) == 0 {
				continue
			}
			if len(p.ChoiceIDs) > 1 {
				return nil, internal.ErrValidationFailed
			}
			if choiceOwner[p.ChoiceIDs[0]] != q.ID {
				return nil, internal.ErrInvalidChoice
			}
			plan = append(plan, answerInsert{
				QuestionID: q.ID,
				ChoiceIDs:  []uuid.UUID{p.ChoiceIDs[0]},
			})

		case question.TypeMultipleChoice:
			if len(p.ChoiceIDs) == 0 {
				continue
			}
			seen := make(map[uuid.UUID]bool, len(p.ChoiceIDs))
			var selected []uuid.UUID
			for _, choiceID := range p.ChoiceIDs {
				if choiceOwner[choiceID] != q.ID {
					return nil, internal.ErrInvalidChoice
				}
				if seen[choiceID] {
					continue
				}
				seen[choiceID] = true
				selected = append(selected, choiceID)
			}
			plan = append(plan, answerInsert{
				QuestionID: q.ID,
				ChoiceIDs:  selected,
			})

		default:
			return nil, internal.ErrValidationFailed
		}
	}

	return plan, nil
}
