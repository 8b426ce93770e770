package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

// UserService exposes user lookup and registration.
type UserService interface {
	Get(ctx context.Context, id string) (models.User, error)
	FindByPhone(ctx context.Context, phone string) (models.User, error)
	FindOrCreate(ctx context.Context, payload dto.UserCreateRequest) (models.User, bool, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService builds the user service.
func NewUserService(repo repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *userService) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	user, err := s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// FindOrCreate returns the user owning the phone number, creating it when absent.
// The boolean reports whether a new row was written.
func (s *userService) FindOrCreate(ctx context.Context, payload dto.UserCreateRequest) (models.User, bool, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.User{}, false, err
	}

	user, created, err := s.repo.FindOrCreate(ctx, strings.TrimSpace(payload.PhoneNumber), strings.TrimSpace(payload.Name))
	if err != nil {
		return models.User{}, false, err
	}
	if created {
		s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	}
	return user, created, nil
}
