package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on the bus, relative to the channel base.
const (
	EventPracticeCompleted = "practice.completed"
	EventAssignmentOverdue = "assignment.overdue"
)

// EventPublisher emits domain events for other processes.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// PracticeCompletedEvent is emitted once per completed attempt.
type PracticeCompletedEvent struct {
	AttemptID    string    `json:"attemptId"`
	AssignmentID string    `json:"assignmentId"`
	UserID       string    `json:"userId"`
	Score        float64   `json:"score"`
	Exchanges    int       `json:"totalExchanges"`
	CompletedAt  time.Time `json:"completedAt"`
}

type natsEventPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewEventPublisher publishes on NATS when a connection is available and discards otherwise.
func NewEventPublisher(conn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return noopEventPublisher{}
	}
	prefix := ""
	if channelBase != "" {
		prefix = strings.ReplaceAll(channelBase, ":", ".") + "."
	}
	return &natsEventPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.prefix+subject, data); err != nil {
		return err
	}
	p.logger.Debug().Str("subject", p.prefix+subject).Msg("event published")
	return nil
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
