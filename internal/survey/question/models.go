package question

import (
	"strings"

	"github.com/google/uuid"
)

// QuestionType is the closed set of supported input kinds. The materializer
// and the authoring layer both switch over it exhaustively.
type QuestionType string

const (
	TypeText           QuestionType = "TEXT"
	TypeTextarea       QuestionType = "TEXTAREA"
	TypeChoice         QuestionType = "CHOICE"
	TypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TypeRating         QuestionType = "RATING"
)

func IsValidType(t QuestionType) bool {
	switch t {
	case TypeText, TypeTextarea, TypeChoice, TypeMultipleChoice, TypeRating:
		return true
	}
	return false
}

// HasChoices reports whether the type carries a choice set.
func (t QuestionType) HasChoices() bool {
	return t == TypeChoice || t == TypeMultipleChoice
}

type Question struct {
	ID           uuid.UUID
	SurveyID     uuid.UUID
	Text         string
	QuestionType QuestionType
	Order        int32
}

type Choice struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Text       string
}

// ParseChoiceLines splits raw authoring input into choice texts: one per
// line, trimmed, blank lines discarded, input order preserved.
func ParseChoiceLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
