package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvaluationExtractsEmbeddedJSON(t *testing.T) {
	text := "Here is my assessment:\n```json\n{\"score\": 82, \"feedback\": \"Solid empathy\", \"strengths\": [\"listening\"], \"improvements\": [\"ask more\"]}\n```"

	outcome := ParseEvaluation(text)
	require.False(t, outcome.Fallback)
	require.InDelta(t, 82, outcome.Evaluation.Score, 0.001)
	require.Equal(t, "Solid empathy", outcome.Evaluation.Feedback)
	require.Equal(t, []string{"listening"}, outcome.Evaluation.Strengths)
	require.Equal(t, []string{"ask more"}, outcome.Evaluation.Improvements)
}

func TestParseEvaluationClampsAndDefaults(t *testing.T) {
	outcome := ParseEvaluation(`{"score": 140, "feedback": "Great"}`)
	require.False(t, outcome.Fallback)
	require.InDelta(t, 100, outcome.Evaluation.Score, 0.001)
	require.NotNil(t, outcome.Evaluation.Strengths)
	require.Empty(t, outcome.Evaluation.Strengths)
	require.NotNil(t, outcome.Evaluation.Improvements)

	outcome = ParseEvaluation(`{"score": -5}`)
	require.False(t, outcome.Fallback)
	require.Zero(t, outcome.Evaluation.Score)
}

func TestParseEvaluationFallsBack(t *testing.T) {
	cases := map[string]string{
		"no json":          "I think the coach did fine.",
		"malformed":        `{"score": 80, "feedback": }`,
		"missing score":    `{"feedback": "no number here"}`,
		"non numeric":      `{"score": "high"}`,
		"wrong list types": `{"score": 70, "strengths": "one"}`,
		"reversed braces":  "} nothing {",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			outcome := ParseEvaluation(text)
			require.True(t, outcome.Fallback)
			require.NotEmpty(t, outcome.Reason)
			require.Equal(t, FallbackEvaluation(), outcome.Evaluation)
		})
	}
}

func TestParseEvaluationSpansFirstToLastBrace(t *testing.T) {
	// Two objects make the greedy span invalid JSON, so the fallback applies.
	outcome := ParseEvaluation(`{"score": 60} and also {"score": 70}`)
	require.True(t, outcome.Fallback)
}
