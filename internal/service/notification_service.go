package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/observability"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

// streamBufferSize is how many undelivered notifications a stream client may lag behind
// before new ones are dropped for it.
const streamBufferSize = 16

// NotificationService stores coaching notifications and pushes them to open dashboard streams.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id string) (dto.NotificationResponse, error)
	Subscribe(userID string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	fanout    notificationFanout
	hub       *streamHub
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	nodeID    string
	now       func() time.Time
}

// notificationEnvelope is what travels between nodes.
type notificationEnvelope struct {
	Node         string                   `json:"node"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sentAt"`
}

// NewNotificationService wires the store and the optional cross-node fan-out. With a NATS
// connection events travel over NATS, otherwise over Redis pub/sub when a client is given.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		fanout:    newNotificationFanout(redisClient, natsConn, channelBase),
		hub:       newStreamHub(),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    observability.Tracer("notification"),
		nodeID:    uuid.NewString(),
		now:       time.Now,
	}
}

// Start subscribes to notifications created on other nodes until ctx ends.
func (s *notificationService) Start(ctx context.Context) {
	if s.fanout == nil {
		return
	}
	if err := s.fanout.Listen(ctx, s.receive); err != nil {
		s.logger.Error().Err(err).Str("fanout", s.fanout.Name()).Msg("notification fan-out unavailable; streams only see local notifications")
		return
	}
	s.logger.Info().Str("fanout", s.fanout.Name()).Msg("listening for notifications from other nodes")
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := plainText(s.sanitizer, payload.Message)
	if message == "" {
		return dto.NotificationResponse{}, errors.New("notification message empty after sanitization")
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.String("notification.user_id", payload.UserID),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	record := models.Notification{
		UserID:  payload.UserID,
		Type:    payload.Type,
		Title:   plainText(s.sanitizer, payload.Title),
		Message: message,
	}
	if len(payload.Metadata) > 0 {
		record.Metadata = datatypes.JSONMap(payload.Metadata)
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	notification := dto.NewNotificationResponse(record)
	s.deliver(notification)
	s.forward(ctx, notification)
	observability.NotificationsPublished().WithLabelValues(notification.Type).Inc()

	return notification, nil
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	records, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(records), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) (dto.NotificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.id", id),
	))
	defer span.End()

	record, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}
	return dto.NewNotificationResponse(record), nil
}

// Subscribe opens a stream for userID. The returned func must be called once the client leaves.
func (s *notificationService) Subscribe(userID string) (<-chan dto.NotificationResponse, func()) {
	stream := s.hub.join(userID)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	return stream, func() {
		once.Do(func() {
			s.hub.leave(userID, stream)
			observability.SSEClientsActive().Dec()
		})
	}
}

func (s *notificationService) deliver(notification dto.NotificationResponse) {
	if dropped := s.hub.send(notification); dropped > 0 {
		observability.NotificationsDropped().WithLabelValues(notification.Type).Add(float64(dropped))
		s.logger.Debug().Str("user_id", notification.UserID).Int("dropped", dropped).Msg("stream client behind, notification skipped")
	}
}

func (s *notificationService) forward(ctx context.Context, notification dto.NotificationResponse) {
	if s.fanout == nil {
		return
	}
	payload, err := json.Marshal(notificationEnvelope{Node: s.nodeID, Notification: notification, SentAt: s.now().UTC()})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode notification for fan-out")
		return
	}
	if err := s.fanout.Send(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Str("fanout", s.fanout.Name()).Msg("failed to forward notification to other nodes")
	}
}

func (s *notificationService) receive(payload []byte) {
	var envelope notificationEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification fan-out payload")
		return
	}
	if envelope.Node == s.nodeID || envelope.Notification.UserID == "" {
		return
	}
	if envelope.Notification.Type == "" {
		envelope.Notification.Type = models.NotificationTypeGeneral
	}
	s.deliver(envelope.Notification)
}

// streamHub tracks the open notification streams per user.
type streamHub struct {
	mu      sync.RWMutex
	streams map[string]map[chan dto.NotificationResponse]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{streams: make(map[string]map[chan dto.NotificationResponse]struct{})}
}

func (h *streamHub) join(userID string) chan dto.NotificationResponse {
	stream := make(chan dto.NotificationResponse, streamBufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streams[userID] == nil {
		h.streams[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	h.streams[userID][stream] = struct{}{}
	return stream
}

func (h *streamHub) leave(userID string, stream chan dto.NotificationResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams, ok := h.streams[userID]
	if !ok {
		return
	}
	if _, ok := streams[stream]; !ok {
		return
	}
	delete(streams, stream)
	close(stream)
	if len(streams) == 0 {
		delete(h.streams, userID)
	}
}

// send offers the notification to every stream of its user and reports how many were full.
func (h *streamHub) send(notification dto.NotificationResponse) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for stream := range h.streams[notification.UserID] {
		select {
		case stream <- notification:
		default:
			dropped++
		}
	}
	return dropped
}

func (h *streamHub) count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[userID])
}
