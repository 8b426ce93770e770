package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Fallback values used when evaluator output cannot be interpreted.
const (
	FallbackScore    = 50
	FallbackFeedback = "Unable to evaluate response"
)

// Evaluation is the rubric-based critique of a single coach turn.
type Evaluation struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// EvaluationOutcome distinguishes a parsed evaluation from the fallback.
type EvaluationOutcome struct {
	Evaluation Evaluation
	Fallback   bool
	Reason     string
}

const evaluationSchemaURL = "heycoach://schemas/evaluation.json"

var evaluationSchema = jsonschema.MustCompileString(evaluationSchemaURL, `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number"},
    "feedback": {"type": "string"},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "improvements": {"type": "array", "items": {"type": "string"}}
  }
}`)

// FallbackEvaluation returns the neutral evaluation used when parsing fails.
func FallbackEvaluation() Evaluation {
	return Evaluation{
		Score:        FallbackScore,
		Feedback:     FallbackFeedback,
		Strengths:    []string{},
		Improvements: []string{},
	}
}

// ParseEvaluation extracts the JSON object spanning the first '{' to the last '}' of
// the evaluator output and validates it. Any failure yields the fallback evaluation.
func ParseEvaluation(text string) EvaluationOutcome {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fallbackOutcome(errors.New("no json object in evaluator output"))
	}
	raw := text[start : end+1]

	var document interface{}
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return fallbackOutcome(err)
	}
	if err := evaluationSchema.Validate(document); err != nil {
		return fallbackOutcome(err)
	}

	var evaluation Evaluation
	if err := json.Unmarshal([]byte(raw), &evaluation); err != nil {
		return fallbackOutcome(err)
	}

	evaluation.Score = ClampScore(evaluation.Score)
	if evaluation.Strengths == nil {
		evaluation.Strengths = []string{}
	}
	if evaluation.Improvements == nil {
		evaluation.Improvements = []string{}
	}

	return EvaluationOutcome{Evaluation: evaluation}
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func fallbackOutcome(err error) EvaluationOutcome {
	evaluationFallbacks.Inc()
	return EvaluationOutcome{
		Evaluation: FallbackEvaluation(),
		Fallback:   true,
		Reason:     err.Error(),
	}
}
