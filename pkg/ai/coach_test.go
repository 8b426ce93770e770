package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	replies  []string
	err      error
	requests []Request
	deadline bool
}

func (g *recordingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	g.requests = append(g.requests, req)
	_, g.deadline = ctx.Deadline()
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", nil
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func (g *recordingGenerator) Provider() string { return "fake" }

func TestCoachSimulateClientInvertsRoles(t *testing.T) {
	gen := &recordingGenerator{replies: []string{"I'm not convinced."}}
	coach := NewCoach(gen, time.Second, zerolog.Nop())

	history := []Message{
		{Role: RoleAssistant, Content: "How can I help today?"},
		{Role: RoleUser, Content: "My team ignores me."},
		{Role: RoleAssistant, Content: "Tell me more."},
	}

	reply, err := coach.SimulateClient(context.Background(), "Underperforming manager", history)
	require.NoError(t, err)
	require.Equal(t, "I'm not convinced.", reply)
	require.True(t, gen.deadline)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	require.Equal(t, PersonaSimulator, req.Persona)
	require.Equal(t, simulatorMaxTokens, req.MaxTokens)
	require.Contains(t, req.System, "Scenario: Underperforming manager")
	require.Equal(t, []Message{
		{Role: RoleUser, Content: "How can I help today?"},
		{Role: RoleAssistant, Content: "My team ignores me."},
		{Role: RoleUser, Content: "Tell me more."},
	}, req.Messages)
	require.Equal(t, RoleAssistant, history[0].Role, "caller history must not be mutated")
}

func TestCoachRespondIncludesUserInfo(t *testing.T) {
	gen := &recordingGenerator{replies: []string{"What would success look like?"}}
	coach := NewCoach(gen, 0, zerolog.Nop())

	reply, err := coach.Respond(context.Background(), CoachingContext{
		Messages: []Message{{Role: RoleUser, Content: "I want to delegate more."}},
		UserInfo: &UserInfo{Name: "Sam", Goals: []string{"delegate"}, Challenges: []string{"perfectionism"}},
	})
	require.NoError(t, err)
	require.Equal(t, "What would success look like?", reply)
	require.False(t, gen.deadline)

	req := gen.requests[0]
	require.Equal(t, coachMaxTokens, req.MaxTokens)
	require.Contains(t, req.System, "- Name: Sam")
	require.Contains(t, req.System, "- Goals: delegate")
	require.Contains(t, req.System, "- Challenges: perfectionism")
}

func TestCoachEvaluateUsesRubricAndFallback(t *testing.T) {
	gen := &recordingGenerator{replies: []string{"not json at all"}}
	coach := NewCoach(gen, 0, zerolog.Nop())

	outcome, err := coach.Evaluate(context.Background(), EvaluationInput{
		CoachText:     "Hi, thanks for meeting today.",
		ClientMessage: "Initial greeting",
		Scenario:      "Difficult conversation",
	})
	require.NoError(t, err)
	require.True(t, outcome.Fallback)
	require.InDelta(t, FallbackScore, outcome.Evaluation.Score, 0.001)

	prompt := gen.requests[0].Messages[0].Content
	require.Contains(t, prompt, `Client said: "Initial greeting"`)
	require.Contains(t, prompt, `Coach responded: "Hi, thanks for meeting today."`)
	require.Contains(t, prompt, "Empathy and active listening (0-25 points)")
	require.Equal(t, evaluatorSystemPrompt, gen.requests[0].System)
}

func TestCoachPropagatesGeneratorErrors(t *testing.T) {
	upstream := &ProviderError{Provider: "fake", StatusCode: 500, Err: errors.New("boom")}
	coach := NewCoach(&recordingGenerator{err: upstream}, 0, zerolog.Nop())

	_, err := coach.Evaluate(context.Background(), EvaluationInput{CoachText: "x"})
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, 500, providerErr.StatusCode)
}

func TestCoachSummarize(t *testing.T) {
	gen := &recordingGenerator{replies: []string{"Trending upward."}}
	coach := NewCoach(gen, 0, zerolog.Nop())

	_, err := coach.Summarize(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoAttempts)

	summary, err := coach.Summarize(context.Background(), []AttemptDigest{{Score: 72.5, Feedback: "ok"}, {Score: 88, Feedback: "better"}})
	require.NoError(t, err)
	require.Equal(t, "Trending upward.", summary)
	prompt := gen.requests[0].Messages[0].Content
	require.Contains(t, prompt, "Attempt 1:\n- Score: 72.5/100")
	require.Contains(t, prompt, "Attempt 2:\n- Score: 88/100")
}
