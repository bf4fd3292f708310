package survey

import (
	"testing"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_normalizeSpecs(t *testing.T) {
	existingID := uuid.New()

	t.Run("orders retained specs by positional index", func(t *testing.T) {
		retained, deleted, err := normalizeSpecs([]QuestionSpec{
			{Text: "Name", QuestionType: question.TypeText},
			{Text: "Color", QuestionType: question.TypeChoice, ChoicesText: "Red\nBlue"},
			{Text: "Feedback", QuestionType: question.TypeTextarea},
		})
		require.NoError(t, err)
		require.Empty(t, deleted)
		require.Len(t, retained, 3)
		for i, spec := range retained {
			require.Equal(t, int32(i), spec.Order)
		}
		require.Equal(t, []string{"Red", "Blue"}, retained[1].Choices)
	})

	t.Run("deleted specs are discarded before ordering", func(t *testing.T) {
		retained, deleted, err := normalizeSpecs([]QuestionSpec{
			{Text: "Name", QuestionType: question.TypeText},
			{ID: existingID, Text: "Old", QuestionType: question.TypeText, MarkedDeleted: true},
			{Text: "Feedback", QuestionType: question.TypeTextarea},
		})
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{existingID}, deleted)
		require.Len(t, retained, 2)
		require.Equal(t, int32(0), retained[0].Order)
		require.Equal(t, int32(1), retained[1].Order)
	})

	t.Run("deleted spec without id is ignored", func(t *testing.T) {
		retained, deleted, err := normalizeSpecs([]QuestionSpec{
			{Text: "Name", QuestionType: question.TypeText},
			{Text: "never persisted", QuestionType: question.TypeText, MarkedDeleted: true},
		})
		require.NoError(t, err)
		require.Empty(t, deleted)
		require.Len(t, retained, 1)
	})

	t.Run("requires at least one retained spec", func(t *testing.T) {
		_, _, err := normalizeSpecs([]QuestionSpec{
			{ID: existingID, Text: "Old", QuestionType: question.TypeText, MarkedDeleted: true},
		})
		require.ErrorIs(t, err, internal.ErrNoQuestions)

		_, _, err = normalizeSpecs(nil)
		require.ErrorIs(t, err, internal.ErrNoQuestions)
	})

	t.Run("rejects blank text", func(t *testing.T) {
		_, _, err := normalizeSpecs([]QuestionSpec{
			{Text: "   ", QuestionType: question.TypeText},
		})
		require.ErrorIs(t, err, internal.ErrValidationFailed)
	})

	t.Run("rejects unknown question type", func(t *testing.T) {
		_, _, err := normalizeSpecs([]QuestionSpec{
			{Text: "Name", QuestionType: question.QuestionType("DROPDOWN")},
		})
		require.ErrorIs(t, err, internal.ErrValidationFailed)
	})

	t.Run("choice text ignored for non-choice types", func(t *testing.T) {
		retained, _, err := normalizeSpecs([]QuestionSpec{
			{Text: "Rate us", QuestionType: question.TypeRating, ChoicesText: "1\n2\n3"},
		})
		require.NoError(t, err)
		require.Empty(t, retained[0].Choices)
	})
}
