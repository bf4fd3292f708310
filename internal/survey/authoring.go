package survey

import (
	"strings"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	"github.com/google/uuid"
)

// QuestionSpec is one row of authoring input. ID is set when the row refers
// to an already-persisted question; a row with MarkedDeleted removes that
// question (and its choices) from the survey.
type QuestionSpec struct {
	ID            uuid.UUID
	Text          string
	QuestionType  question.QuestionType
	ChoicesText   string
	MarkedDeleted bool
}

// retainedSpec is a validated spec ready for insertion, with its display
// order fixed to the positional index among retained rows.
type retainedSpec struct {
	Text         string
	QuestionType question.QuestionType
	Choices      []string
	Order        int32
}

// normalizeSpecs splits authoring input into rows to insert and question IDs
// to delete. Deleted rows are discarded first; each retained row must carry
// non-blank text and a valid type, and at least one retained row must remain.
// Choice text is only honored for the choice-bearing types.
func normalizeSpecs(specs []QuestionSpec) ([]retainedSpec, []uuid.UUID, error) {
	var retained []retainedSpec
	var deleted []uuid.UUID

	for _, spec := range specs {
		if spec.MarkedDeleted {
			if spec.ID != uuid.Nil {
				deleted = append(deleted, spec.ID)
			}
			continue
		}

		text := strings.TrimSpace(spec.Text)
		if text == "" {
			return nil, nil, internal.ErrValidationFailed
		}
		if !question.IsValidType(spec.QuestionType) {
			return nil, nil, internal.ErrValidationFailed
		}

		var choices []string
		if spec.QuestionType.HasChoices() {
			choices = question.ParseChoiceLines(spec.ChoicesText)
		}

		retained = append(retained, retainedSpec{
			Text:         text,
			QuestionType: spec.QuestionType,
			Choices:      choices,
			Order:        int32(len(retained)),
		})
	}

	if len(retained) == 0 {
		return nil, nil, internal.ErrNoQuestions
	}
	return retained, deleted, nil
}
