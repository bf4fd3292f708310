package response

import (
	"testing"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_buildAnswerPlan(t *testing.T) {
	surveyID := uuid.New()

	textQ := question.Question{ID: uuid.New(), SurveyID: surveyID, Text: "Name", QuestionType: question.TypeText, Order: 0}
	choiceQ := question.Question{ID: uuid.New(), SurveyID: surveyID, Text: "Color", QuestionType: question.TypeChoice, Order: 1}
	multiQ := question.Question{ID: uuid.New(), SurveyID: surveyID, Text: "Toppings", QuestionType: question.TypeMultipleChoice, Order: 2}
	ratingQ := question.Question{ID: uuid.New(), SurveyID: surveyID, Text: "Rate", QuestionType: question.TypeRating, Order: 3}
	questions := []question.Question{textQ, choiceQ, multiQ, ratingQ}

	red := question.Choice{ID: uuid.New(), QuestionID: choiceQ.ID, Text: "Red"}
	blue := question.Choice{ID: uuid.New(), QuestionID: choiceQ.ID, Text: "Blue"}
	cheese := question.Choice{ID: uuid.New(), QuestionID: multiQ.ID, Text: "Cheese"}
	olives := question.Choice{ID: uuid.New(), QuestionID: multiQ.ID, Text: "Olives"}
	choices := []question.Choice{red, blue, cheese, olives}

	t.Run("full submission in question order", func(t *testing.T) {
		plan, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: ratingQ.ID, Body: "5"},
			{QuestionID: textQ.ID, Body: "Jane"},
			{QuestionID: multiQ.ID, ChoiceIDs: []uuid.UUID{cheese.ID, olives.ID}},
			{QuestionID: choiceQ.ID, ChoiceIDs: []uuid.UUID{red.ID}},
		})
		require.NoError(t, err)
		require.Len(t, plan, 4)

		require.Equal(t, textQ.ID, plan[0].QuestionID)
		require.Equal(t, "Jane", plan[0].Body.String)

		require.Equal(t, choiceQ.ID, plan[1].QuestionID)
		require.Equal(t, []uuid.UUID{red.ID}, plan[1].ChoiceIDs)

		require.Equal(t, multiQ.ID, plan[2].QuestionID)
		require.Equal(t, []uuid.UUID{cheese.ID, olives.ID}, plan[2].ChoiceIDs)

		require.Equal(t, ratingQ.ID, plan[3].QuestionID)
		require.Equal(t, "5", plan[3].Body.String)
	})

	t.Run("absent scalar payload still yields empty-bodied answer", func(t *testing.T) {
		plan, err := buildAnswerPlan(questions, choices, nil)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		require.Equal(t, textQ.ID, plan[0].QuestionID)
		require.Equal(t, "", plan[0].Body.String)
		require.Equal(t, ratingQ.ID, plan[1].QuestionID)
	})

	t.Run("absent choice selections yield no answer rows", func(t *testing.T) {
		plan, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: textQ.ID, Body: "Jane"},
		})
		require.NoError(t, err)
		for _, a := range plan {
			require.NotEqual(t, choiceQ.ID, a.QuestionID)
			require.NotEqual(t, multiQ.ID, a.QuestionID)
		}
	})

	t.Run("choice from another question is rejected", func(t *testing.T) {
		_, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: choiceQ.ID, ChoiceIDs: []uuid.UUID{cheese.ID}},
		})
		require.ErrorIs(t, err, internal.ErrInvalidChoice)
	})

	t.Run("unknown choice id is rejected", func(t *testing.T) {
		_, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: multiQ.ID, ChoiceIDs: []uuid.UUID{uuid.New()}},
		})
		require.ErrorIs(t, err, internal.ErrInvalidChoice)
	})

	t.Run("multiple selections on single-choice question rejected", func(t *testing.T) {
		_, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: choiceQ.ID, ChoiceIDs: []uuid.UUID{red.ID, blue.ID}},
		})
		require.ErrorIs(t, err, internal.ErrValidationFailed)
	})

	t.Run("payload for a foreign question rejected", func(t *testing.T) {
		_, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: uuid.New(), Body: "stray"},
		})
		require.ErrorIs(t, err, internal.ErrValidationFailed)
	})

	t.Run("duplicate multi-choice selections are collapsed", func(t *testing.T) {
		plan, err := buildAnswerPlan(questions, choices, []AnswerParam{
			{QuestionID: multiQ.ID, ChoiceIDs: []uuid.UUID{cheese.ID, cheese.ID}},
		})
		require.NoError(t, err)
		var multi *answerInsert
		for i := range plan {
			if plan[i].QuestionID == multiQ.ID {
				multi = &plan[i]
			}
		}
		require.NotNil(t, multi)
		require.Equal(t, []uuid.UUID{cheese.ID}, multi.ChoiceIDs)
	})
}
