package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoAttempts is returned when a summary is requested without any attempts.
var ErrNoAttempts = errors.New("no attempts to summarise")

// Token budgets per persona.
const (
	coachMaxTokens     = 1024
	simulatorMaxTokens = 512
	evaluatorMaxTokens = 1024
	mentorMaxTokens    = 512
)

// UserInfo personalises the coach persona.
type UserInfo struct {
	Name       string   `json:"name"`
	Goals      []string `json:"goals,omitempty"`
	Challenges []string `json:"challenges,omitempty"`
}

// CoachingContext is the conversation the coach persona replies to.
type CoachingContext struct {
	Messages []Message
	UserInfo *UserInfo
}

// EvaluationInput is the material the evaluator persona grades.
type EvaluationInput struct {
	CoachText     string
	ClientMessage string
	Scenario      string
}

// AttemptDigest is the per-attempt input of a feedback summary.
type AttemptDigest struct {
	Score    float64
	Feedback string
}

// Coach runs the coaching personas over a single Generator.
type Coach struct {
	generator Generator
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewCoach wraps a generator. A zero timeout leaves the caller's deadline untouched.
func NewCoach(generator Generator, timeout time.Duration, logger zerolog.Logger) *Coach {
	return &Coach{
		generator: generator,
		timeout:   timeout,
		logger:    logger.With().Str("component", "ai_coach").Logger(),
	}
}

// Provider reports the backing provider.
func (c *Coach) Provider() string {
	return c.generator.Provider()
}

// Respond produces an executive-coach reply to the conversation.
func (c *Coach) Respond(ctx context.Context, coaching CoachingContext) (string, error) {
	return c.generate(ctx, Request{
		Persona:   PersonaCoach,
		System:    buildCoachSystemPrompt(coaching.UserInfo),
		Messages:  coaching.Messages,
		MaxTokens: coachMaxTokens,
	})
}

// SimulateClient produces the simulated client's next line. History uses the persisted
// convention (assistant = coach, user = client) and is inverted before sending so the
// model speaks as the client.
func (c *Coach) SimulateClient(ctx context.Context, scenario string, history []Message) (string, error) {
	inverted := make([]Message, len(history))
	for i, m := range history {
		role := RoleAssistant
		if m.Role == RoleAssistant {
			role = RoleUser
		}
		inverted[i] = Message{Role: role, Content: m.Content}
	}

	return c.generate(ctx, Request{
		Persona:   PersonaSimulator,
		System:    buildSimulatorSystemPrompt(scenario),
		Messages:  inverted,
		MaxTokens: simulatorMaxTokens,
	})
}

// Evaluate grades a coach turn. Generator failures are returned; unparsable output is
// reported through the outcome's Fallback flag instead.
func (c *Coach) Evaluate(ctx context.Context, input EvaluationInput) (EvaluationOutcome, error) {
	text, err := c.generate(ctx, Request{
		Persona:   PersonaEvaluator,
		System:    evaluatorSystemPrompt,
		Messages:  []Message{{Role: RoleUser, Content: buildEvaluationPrompt(input)}},
		MaxTokens: evaluatorMaxTokens,
	})
	if err != nil {
		return EvaluationOutcome{}, err
	}

	outcome := ParseEvaluation(text)
	if outcome.Fallback {
		c.logger.Warn().Str("reason", outcome.Reason).Msg("evaluator output replaced by fallback")
	}
	return outcome, nil
}

// Summarize writes a developmental summary across completed attempts.
func (c *Coach) Summarize(ctx context.Context, attempts []AttemptDigest) (string, error) {
	if len(attempts) == 0 {
		return "", ErrNoAttempts
	}
	return c.generate(ctx, Request{
		Persona:   PersonaMentor,
		System:    mentorSystemPrompt,
		Messages:  []Message{{Role: RoleUser, Content: buildSummaryPrompt(attempts)}},
		MaxTokens: mentorMaxTokens,
	})
}

func (c *Coach) generate(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.generator.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", req.Persona, err)
	}
	return text, nil
}
