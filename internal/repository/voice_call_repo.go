package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// VoiceCallResult holds the values captured once a call has finished.
type VoiceCallResult struct {
	RecordingURL  string
	Transcription string
	Duration      *int
	Score         *float64
	Feedback      string
}

// VoiceCallRepository persists telephony call records.
type VoiceCallRepository interface {
	Create(ctx context.Context, call *models.VoiceCall) error
	GetByID(ctx context.Context, id string) (models.VoiceCall, error)
	GetByCallSID(ctx context.Context, callSID string) (models.VoiceCall, error)
	AttachCallSID(ctx context.Context, id, callSID string) error
	UpdateStatus(ctx context.Context, id, status string, duration *int) error
	Complete(ctx context.Context, id string, result VoiceCallResult) error
}

type voiceCallRepository struct {
	db *gorm.DB
}

// NewVoiceCallRepository instantiates a GORM-backed repository.
func NewVoiceCallRepository(db *gorm.DB) VoiceCallRepository {
	return &voiceCallRepository{db: db}
}

func (r *voiceCallRepository) Create(ctx context.Context, call *models.VoiceCall) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *voiceCallRepository) GetByID(ctx context.Context, id string) (models.VoiceCall, error) {
	var call models.VoiceCall
	if err := r.db.WithContext(ctx).First(&call, "id = ?", id).Error; err != nil {
		return models.VoiceCall{}, err
	}
	return call, nil
}

func (r *voiceCallRepository) GetByCallSID(ctx context.Context, callSID string) (models.VoiceCall, error) {
	var call models.VoiceCall
	if err := r.db.WithContext(ctx).Where("call_sid = ?", callSID).First(&call).Error; err != nil {
		return models.VoiceCall{}, err
	}
	return call, nil
}

func (r *voiceCallRepository) AttachCallSID(ctx context.Context, id, callSID string) error {
	return r.updates(ctx, id, map[string]interface{}{"call_sid": callSID})
}

func (r *voiceCallRepository) UpdateStatus(ctx context.Context, id, status string, duration *int) error {
	updates := map[string]interface{}{"status": status}
	if duration != nil {
		updates["duration"] = *duration
	}
	return r.updates(ctx, id, updates)
}

func (r *voiceCallRepository) Complete(ctx context.Context, id string, result VoiceCallResult) error {
	updates := map[string]interface{}{
		"status":        models.VoiceCallStatusCompleted,
		"recording_url": result.RecordingURL,
		"transcription": result.Transcription,
		"feedback":      result.Feedback,
	}
	if result.Duration != nil {
		updates["duration"] = *result.Duration
	}
	if result.Score != nil {
		updates["score"] = *result.Score
	}
	return r.updates(ctx, id, updates)
}

func (r *voiceCallRepository) updates(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.VoiceCall{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
