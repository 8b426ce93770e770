package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/pkg/ai"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

// Whisper rejects uploads above 25 MB.
const maxRecordingBytes = 25 << 20

// VoiceCallService places voice coaching calls and processes their outcome.
type VoiceCallService interface {
	Initiate(ctx context.Context, payload dto.VoiceCallCreateRequest) (models.VoiceCall, error)
	HandleStatus(ctx context.Context, payload dto.VoiceCallStatusCallback) (models.VoiceCall, error)
}

// VoiceCallDeps groups the collaborators of the voice call service.
type VoiceCallDeps struct {
	Calls         repository.VoiceCallRepository
	Users         repository.UserRepository
	Sessions      SessionService
	Placer        CallPlacer
	Archiver      RecordingArchiver
	Transcriber   ai.Transcriber
	PublicBaseURL string
	Validator     *validator.Validate
	Logger        zerolog.Logger
}

type voiceCallService struct {
	calls       repository.VoiceCallRepository
	users       repository.UserRepository
	sessions    SessionService
	placer      CallPlacer
	archiver    RecordingArchiver
	transcriber ai.Transcriber
	baseURL     string
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewVoiceCallService builds the voice call service. Archiver may be nil; a nil
// transcriber stores the pending placeholder.
func NewVoiceCallService(deps VoiceCallDeps) VoiceCallService {
	transcriber := deps.Transcriber
	if transcriber == nil {
		transcriber = ai.NoopTranscriber{}
	}
	return &voiceCallService{
		calls:       deps.Calls,
		users:       deps.Users,
		sessions:    deps.Sessions,
		placer:      deps.Placer,
		archiver:    deps.Archiver,
		transcriber: transcriber,
		baseURL:     strings.TrimRight(deps.PublicBaseURL, "/"),
		validator:   deps.Validator,
		logger:      deps.Logger.With().Str("component", "voice_call_service").Logger(),
	}
}

func (s *voiceCallService) Initiate(ctx context.Context, payload dto.VoiceCallCreateRequest) (models.VoiceCall, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.VoiceCall{}, err
	}

	session, err := s.sessions.Get(ctx, payload.SessionID)
	if err != nil {
		return models.VoiceCall{}, err
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.VoiceCall{}, ErrUserNotFound
		}
		return models.VoiceCall{}, err
	}

	call := models.VoiceCall{
		SessionID: session.ID,
		UserID:    user.ID,
		Status:    models.VoiceCallStatusInitiated,
	}
	if err := s.calls.Create(ctx, &call); err != nil {
		return models.VoiceCall{}, fmt.Errorf("create voice call: %w", err)
	}

	sid, err := s.placer.InitiateCall(ctx, user.PhoneNumber, s.baseURL+"/api/voice-calls/twiml", s.baseURL+"/api/voice-calls/status")
	if err != nil {
		if updateErr := s.calls.UpdateStatus(ctx, call.ID, models.VoiceCallStatusFailed, nil); updateErr != nil {
			s.logger.Warn().Err(updateErr).Str("call_id", call.ID).Msg("failed to mark call failed")
		}
		if errors.Is(err, twilio.ErrNotConfigured) {
			return models.VoiceCall{}, ErrMessagingUnavailable
		}
		return models.VoiceCall{}, fmt.Errorf("place call: %w", err)
	}

	if err := s.calls.AttachCallSID(ctx, call.ID, sid); err != nil {
		return models.VoiceCall{}, fmt.Errorf("attach call sid: %w", err)
	}

	s.logger.Info().Str("call_id", call.ID).Str("call_sid", sid).Str("session_id", session.ID).Msg("voice call placed")
	return s.calls.GetByID(ctx, call.ID)
}

// HandleStatus applies a Twilio status callback. Callbacks for calls that already
// reached a terminal state are ignored.
func (s *voiceCallService) HandleStatus(ctx context.Context, payload dto.VoiceCallStatusCallback) (models.VoiceCall, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.VoiceCall{}, err
	}

	call, err := s.calls.GetByCallSID(ctx, payload.CallSID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.VoiceCall{}, ErrVoiceCallNotFound
		}
		return models.VoiceCall{}, err
	}
	if call.IsTerminal() {
		return call, nil
	}

	duration := parseCallDuration(payload.CallDuration)
	status := callStatus(payload.CallStatus)

	switch status {
	case models.VoiceCallStatusCompleted:
		if err := s.finalize(ctx, call, duration); err != nil {
			return models.VoiceCall{}, err
		}
	case models.VoiceCallStatusInProgress:
		if err := s.calls.UpdateStatus(ctx, call.ID, status, duration); err != nil {
			return models.VoiceCall{}, err
		}
		if _, err := s.sessions.Update(ctx, call.SessionID, dto.SessionUpdateRequest{Status: stringPtr(models.SessionStatusInProgress)}); err != nil {
			s.logger.Warn().Err(err).Str("session_id", call.SessionID).Msg("failed to start voice session")
		}
	default:
		if status != call.Status {
			if err := s.calls.UpdateStatus(ctx, call.ID, status, duration); err != nil {
				return models.VoiceCall{}, err
			}
		}
	}

	return s.calls.GetByID(ctx, call.ID)
}

func (s *voiceCallService) finalize(ctx context.Context, call models.VoiceCall, duration *int) error {
	result := repository.VoiceCallResult{
		Duration:      duration,
		Transcription: ai.PendingTranscription,
	}

	sid := ""
	if call.CallSID != nil {
		sid = *call.CallSID
	}

	mediaURL, found, err := s.placer.LatestRecordingURL(ctx, sid)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("call_id", call.ID).Msg("failed to look up recording")
	case found:
		result.RecordingURL = mediaURL
		audio, err := s.fetchRecording(ctx, mediaURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("call_id", call.ID).Msg("failed to download recording")
			break
		}
		if s.archiver != nil {
			archived, err := s.archiver.ArchiveRecording(ctx, "call-"+call.ID, bytes.NewReader(audio))
			if err != nil {
				s.logger.Warn().Err(err).Str("call_id", call.ID).Msg("failed to archive recording")
			} else {
				result.RecordingURL = archived
			}
		}
		transcript, err := s.transcriber.Transcribe(ctx, "call-"+call.ID+".mp3", bytes.NewReader(audio))
		if err != nil {
			s.logger.Warn().Err(err).Str("call_id", call.ID).Msg("transcription failed")
		} else if strings.TrimSpace(transcript) != "" {
			result.Transcription = transcript
		}
	}

	if err := s.calls.Complete(ctx, call.ID, result); err != nil {
		return fmt.Errorf("complete voice call: %w", err)
	}

	notes := ""
	if result.Transcription != ai.PendingTranscription {
		notes = result.Transcription
	}
	update := dto.SessionUpdateRequest{Status: stringPtr(models.SessionStatusCompleted)}
	if notes != "" {
		update.Notes = &notes
	}
	if _, err := s.sessions.Update(ctx, call.SessionID, update); err != nil {
		s.logger.Warn().Err(err).Str("session_id", call.SessionID).Msg("failed to complete voice session")
	}

	s.logger.Info().Str("call_id", call.ID).Bool("recorded", result.RecordingURL != "").Msg("voice call completed")
	return nil
}

func (s *voiceCallService) fetchRecording(ctx context.Context, url string) ([]byte, error) {
	body, err := s.placer.DownloadRecording(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	audio, err := io.ReadAll(io.LimitReader(body, maxRecordingBytes+1))
	if err != nil {
		return nil, err
	}
	if len(audio) > maxRecordingBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrRecordingTooLarge, maxRecordingBytes)
	}
	return audio, nil
}

// callStatus maps Twilio call states onto the stored lifecycle.
func callStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in-progress", "answered":
		return models.VoiceCallStatusInProgress
	case "completed":
		return models.VoiceCallStatusCompleted
	case "busy", "failed", "no-answer", "canceled":
		return models.VoiceCallStatusFailed
	default:
		return models.VoiceCallStatusInitiated
	}
}

func parseCallDuration(raw string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

func stringPtr(value string) *string {
	return &value
}
