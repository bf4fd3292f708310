package question

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidType(t *testing.T) {
	for _, valid := range []QuestionType{TypeText, TypeTextarea, TypeChoice, TypeMultipleChoice, TypeRating} {
		require.True(t, IsValidType(valid), string(valid))
	}
	require.False(t, IsValidType(QuestionType("DROPDOWN")))
	require.False(t, IsValidType(QuestionType("")))
}

func TestQuestionType_HasChoices(t *testing.T) {
	require.True(t, TypeChoice.HasChoices())
	require.True(t, TypeMultipleChoice.HasChoices())
	require.False(t, TypeText.HasChoices())
	require.False(t, TypeTextarea.HasChoices())
	require.False(t, TypeRating.HasChoices())
}

func TestParseChoiceLines(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain lines",
			raw:  "Red\nBlue",
			want: []string{"Red", "Blue"},
		},
		{
			name: "trims and drops blanks",
			raw:  "  Red  \n\n\t\nBlue\n   ",
			want: []string{"Red", "Blue"},
		},
		{
			name: "windows line endings",
			raw:  "Red\r\nBlue\r\n",
			want: []string{"Red", "Blue"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "only whitespace",
			raw:  " \n\t\n ",
			want: nil,
		},
		{
			name: "order preserved",
			raw:  "c\na\nb",
			want: []string{"c", "a", "b"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseChoiceLines(tc.raw))
		})
	}
}
