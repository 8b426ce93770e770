package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// personaGenerator answers each persona from its own script.
type personaGenerator struct {
	mu       sync.Mutex
	replies  map[string][]string
	failures map[string]error
	requests []ai.Request
}

func newPersonaGenerator() *personaGenerator {
	return &personaGenerator{
		replies:  make(map[string][]string),
		failures: make(map[string]error),
	}
}

func (g *personaGenerator) script(persona string, replies ...string) *personaGenerator {
	g.replies[persona] = append(g.replies[persona], replies...)
	return g
}

func (g *personaGenerator) fail(persona string, err error) *personaGenerator {
	g.failures[persona] = err
	return g
}

func (g *personaGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if err := g.failures[req.Persona]; err != nil {
		return "", err
	}
	queue := g.replies[req.Persona]
	if len(queue) == 0 {
		return "", errors.New("no scripted reply for " + req.Persona)
	}
	if len(queue) > 1 {
		g.replies[req.Persona] = queue[1:]
	}
	return queue[0], nil
}

func (g *personaGenerator) Provider() string { return "fake" }

func (g *personaGenerator) requestsFor(persona string) []ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []ai.Request
	for _, req := range g.requests {
		if req.Persona == persona {
			out = append(out, req)
		}
	}
	return out
}

func newTestCoach(gen ai.Generator) *ai.Coach {
	return ai.NewCoach(gen, time.Second, testLogger())
}

// recordingSender captures outbound channel messages.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

type sentMessage struct {
	To   string
	Body string
}

func (s *recordingSender) SendMessage(_ context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%d", len(s.sent)), nil
}

func (s *recordingSender) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMessage{}
	}
	return s.sent[len(s.sent)-1]
}

// recordingEvents captures published domain events.
type recordingEvents struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (r *recordingEvents) Publish(_ context.Context, subject string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, payload)
	return nil
}

func seedAssignment(t *testing.T, db *gorm.DB, userID string) models.Assignment {
	t.Helper()
	user := models.User{ID: userID, PhoneNumber: "+1555" + userID, Name: "Taylor"}
	require.NoError(t, db.Create(&user).Error)

	assignment := models.Assignment{
		UserID:      userID,
		Title:       "Difficult Conversation Practice",
		Description: "Address missed deadlines",
		Scenario:    "A team member keeps missing deadlines and feels the workload is unfair.",
		Difficulty:  models.DifficultyIntermediate,
		Status:      models.AssignmentStatusPending,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

type repositorySet struct {
	db            *gorm.DB
	users         repository.UserRepository
	sessions      repository.SessionRepository
	assignments   repository.AssignmentRepository
	messages      repository.MessageRepository
	attempts      repository.PracticeAttemptRepository
	calls         repository.VoiceCallRepository
	metrics       repository.ProgressMetricRepository
	notifications repository.NotificationRepository
}

func newRepositorySet(db *gorm.DB) *repositorySet {
	return &repositorySet{
		db:            db,
		users:         repository.NewUserRepository(db),
		sessions:      repository.NewSessionRepository(db),
		assignments:   repository.NewAssignmentRepository(db),
		messages:      repository.NewMessageRepository(db),
		attempts:      repository.NewPracticeAttemptRepository(db),
		calls:         repository.NewVoiceCallRepository(db),
		metrics:       repository.NewProgressMetricRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}
}
