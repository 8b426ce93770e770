package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/pkg/ai"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

type whatsappFixture struct {
	repos    *repositorySet
	sessions SessionService
	sender   *recordingSender
	gen      *personaGenerator
	svc      WhatsAppService
}

func newWhatsAppFixture(t *testing.T) whatsappFixture {
	t.Helper()
	repos := newRepositorySet(setupServiceDB(t))
	sessions := NewSessionService(repos.sessions, nil, testValidator(), testLogger())
	sender := &recordingSender{}
	gen := newPersonaGenerator().script(ai.PersonaCoach, "What outcome would make this week a win?")

	svc := NewWhatsAppService(WhatsAppDeps{
		Users:         repos.users,
		Messages:      repos.messages,
		Sessions:      sessions,
		Coach:         newTestCoach(gen),
		Sender:        sender,
		PublicBaseURL: "https://coach.example.com/",
		Logger:        testLogger(),
	})
	return whatsappFixture{repos: repos, sessions: sessions, sender: sender, gen: gen, svc: svc}
}

func inbound(body string) twilio.InboundMessage {
	return twilio.InboundMessage{From: "whatsapp:+15550001111", Body: body, MessageSID: "SM1", ProfileName: "Riley"}
}

func TestWhatsAppWelcomesNewUser(t *testing.T) {
	fx := newWhatsAppFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("hello")))
	require.Equal(t, "+15550001111", fx.sender.last().To)
	require.Contains(t, fx.sender.last().Body, "Welcome to Hey Coach!")

	user, err := fx.repos.users.FindByPhone(ctx, "+15550001111")
	require.NoError(t, err)
	require.Equal(t, "Riley", user.Name)
}

func TestWhatsAppCommands(t *testing.T) {
	fx := newWhatsAppFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("hi")))

	cases := []struct {
		body     string
		contains string
	}{
		{"/help", "Available Commands"},
		{"/endsession", "No active session found."},
		{"/session", "New coaching session started!"},
		{"/SESSION now", "You already have an active session."},
		{"/assignments", "https://coach.example.com/assignments"},
		{"/progress", "https://coach.example.com/progress"},
		{"/schedule", "https://coach.example.com/sessions"},
		{"/dance", "Unknown command."},
		{"/endsession", "Session completed!"},
	}
	for _, tc := range cases {
		require.NoError(t, fx.svc.HandleInbound(ctx, inbound(tc.body)), tc.body)
		require.Contains(t, fx.sender.last().Body, tc.contains, tc.body)
	}

	user, err := fx.repos.users.FindByPhone(ctx, "+15550001111")
	require.NoError(t, err)
	sessions, err := fx.repos.sessions.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, models.SessionStatusCompleted, sessions[0].Status)
	require.NotNil(t, sessions[0].StartedAt)
}

func TestWhatsAppHintsWithoutSession(t *testing.T) {
	fx := newWhatsAppFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("hi")))

	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("I need help with my team")))
	require.Equal(t, sessionHintMessage, fx.sender.last().Body)
	require.Empty(t, fx.gen.requestsFor(ai.PersonaCoach))
}

func TestWhatsAppConversationInActiveSession(t *testing.T) {
	fx := newWhatsAppFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("hi")))
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("/session")))

	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("My team <b>ignores</b> deadlines")))
	require.Equal(t, "What outcome would make this week a win?", fx.sender.last().Body)

	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("Fewer slipped tasks")))

	requests := fx.gen.requestsFor(ai.PersonaCoach)
	require.Len(t, requests, 2)
	require.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "My team ignores deadlines"}}, requests[0].Messages)
	require.Equal(t, []ai.Message{
		{Role: ai.RoleUser, Content: "My team ignores deadlines"},
		{Role: ai.RoleAssistant, Content: "What outcome would make this week a win?"},
		{Role: ai.RoleUser, Content: "Fewer slipped tasks"},
	}, requests[1].Messages)
	require.Contains(t, requests[0].System, "Riley")

	user, err := fx.repos.users.FindByPhone(ctx, "+15550001111")
	require.NoError(t, err)
	session, err := fx.sessions.Active(ctx, user.ID)
	require.NoError(t, err)
	stored, err := fx.repos.messages.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored, 4)
}

func TestWhatsAppCoachFailureSendsApology(t *testing.T) {
	fx := newWhatsAppFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("hi")))
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("/session")))

	fx.gen.fail(ai.PersonaCoach, &ai.ProviderError{Provider: "fake", StatusCode: 500})
	require.NoError(t, fx.svc.HandleInbound(ctx, inbound("Are you there?")))
	require.Equal(t, coachUnavailableReply, fx.sender.last().Body)
}
