package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/heycoach-api/internal/config"
	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/handler"
	"github.com/noah-isme/heycoach-api/internal/middleware"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/internal/router"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/pkg/ai"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

const scoredEvaluation = `{"score": 82, "feedback": "Warm opening", "strengths": ["rapport"], "improvements": ["ask about goals"]}`

// scriptedGenerator answers per persona; the last scripted reply repeats.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string][]string
	err     error
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{replies: map[string][]string{
		ai.PersonaCoach:     {"Let's reflect on that together."},
		ai.PersonaSimulator: {"I'm not sure where to start, honestly."},
		ai.PersonaEvaluator: {scoredEvaluation},
		ai.PersonaMentor:    {"Steady progress across attempts."},
	}}
}

func (g *scriptedGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	queue := g.replies[req.Persona]
	if len(queue) == 0 {
		return "", fmt.Errorf("no reply for %s", req.Persona)
	}
	if len(queue) > 1 {
		g.replies[req.Persona] = queue[1:]
	}
	return queue[0], nil
}

func (g *scriptedGenerator) Provider() string { return "fake" }

func (g *scriptedGenerator) failWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type capturedMessage struct {
	To   string
	Body string
}

// fakeTwilio records outbound messages and refuses to place calls.
type fakeTwilio struct {
	mu   sync.Mutex
	sent []capturedMessage
}

func (f *fakeTwilio) SendMessage(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, capturedMessage{To: to, Body: body})
	return fmt.Sprintf("SM%d", len(f.sent)), nil
}

func (f *fakeTwilio) InitiateCall(context.Context, string, string, string) (string, error) {
	return "", twilio.ErrNotConfigured
}

func (f *fakeTwilio) LatestRecordingURL(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeTwilio) DownloadRecording(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("no recordings")
}

func (f *fakeTwilio) messages() []capturedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedMessage(nil), f.sent...)
}

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	generator *scriptedGenerator
	twilio    *fakeTwilio
	whatsapp  *handler.WhatsAppHandler
	voice     *handler.VoiceCallHandler
}

type envOptions struct {
	withoutCoach bool
	seedEnabled  bool
	seedToken    string
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	log := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	gen := newScriptedGenerator()
	tw := &fakeTwilio{}

	var coach service.CoachAI
	if !opts.withoutCoach {
		coach = ai.NewCoach(gen, time.Second, log)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attemptRepo := repository.NewPracticeAttemptRepository(db)
	metricRepo := repository.NewProgressMetricRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "test", nil, validate, log)
	progress := service.NewProgressService(metricRepo, sessionRepo, assignmentRepo, attemptRepo, nil, time.Minute, "test", validate, log)
	sessions := service.NewSessionService(sessionRepo, progress, validate, log)
	assignments := service.NewAssignmentService(assignmentRepo, notifications, progress, nil, validate, log)
	practice := service.NewPracticeService(service.PracticeDeps{
		Attempts:      attemptRepo,
		Assignments:   assignmentRepo,
		Coach:         coach,
		Notifications: notifications,
		Progress:      progress,
		Validator:     validate,
		Logger:        log,
	})

	whatsappHandler := handler.NewWhatsAppHandler(service.NewWhatsAppService(service.WhatsAppDeps{
		Users:         userRepo,
		Messages:      messageRepo,
		Sessions:      sessions,
		Coach:         coach,
		Sender:        tw,
		PublicBaseURL: "https://coach.example.com",
		Logger:        log,
	}), log)
	voiceHandler := handler.NewVoiceCallHandler(service.NewVoiceCallService(service.VoiceCallDeps{
		Calls:         repository.NewVoiceCallRepository(db),
		Users:         userRepo,
		Sessions:      sessions,
		Placer:        tw,
		PublicBaseURL: "https://coach.example.com",
		Validator:     validate,
		Logger:        log,
	}), log)

	cfg := config.Config{AppName: "Test", AppEnv: "test", AIProvider: "anthropic"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &log})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         handler.NewUserHandler(service.NewUserService(userRepo, validate, log), log),
		SessionHandler:      handler.NewSessionHandler(sessions, log),
		AssignmentHandler:   handler.NewAssignmentHandler(assignments, log),
		PracticeHandler:     handler.NewPracticeHandler(practice, log),
		MessageHandler:      handler.NewMessageHandler(service.NewMessageService(messageRepo), log),
		CoachHandler:        handler.NewCoachHandler(service.NewCoachService(coach, validate, log), log),
		ProgressHandler:     handler.NewProgressHandler(progress, log),
		NotificationHandler: handler.NewNotificationHandler(notifications, log, time.Second),
		VoiceCallHandler:    voiceHandler,
		WhatsAppHandler:     whatsappHandler,
		SeedHandler:         handler.NewSeedHandler(service.NewSeedService(repository.NewSeedRepository(db), opts.seedEnabled, opts.seedToken, log), log),
	})

	return &testEnv{app: app, db: db, generator: gen, twilio: tw, whatsapp: whatsappHandler, voice: voiceHandler}
}

func (e *testEnv) do(t *testing.T, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope[T any] struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Details map[string]string `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func createUser(t *testing.T, env *testEnv, phone string) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/users", map[string]string{"phoneNumber": phone, "name": "Jordan"})
	require.Contains(t, []int{fiber.StatusCreated, fiber.StatusOK}, resp.StatusCode)

	var out envelope[struct {
		ID string `json:"id"`
	}]
	decodeResponse(t, resp, &out)
	return out.Data.ID
}

func createAssignment(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/assignments", map[string]string{
		"userId":      userID,
		"title":       "Difficult conversation",
		"description": "Practice opening a tough conversation",
		"scenario":    "You are a manager who keeps missing deadlines and feels defensive.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out envelope[struct {
		ID string `json:"id"`
	}]
	decodeResponse(t, resp, &out)
	require.NotEmpty(t, out.Data.ID)
	return out.Data.ID
}
