package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/config"
	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/handler"
	"github.com/noah-isme/heycoach-api/internal/logging"
	"github.com/noah-isme/heycoach-api/internal/middleware"
	"github.com/noah-isme/heycoach-api/internal/observability"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/internal/router"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/pkg/ai"
	cloud "github.com/noah-isme/heycoach-api/pkg/cloudinary"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg)
	observability.RegisterMetrics()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = redisClient.Close() }()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	coach, transcriber := buildAI(cfg, logger)

	twilioClient := twilio.NewClient(twilio.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioWhatsAppNumber,
		Logger:     logger,
	})

	var archiver service.RecordingArchiver
	if cfg.CloudinaryConfigured() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		archiver = uploader
	}

	var locker service.AttemptLocker = service.NewLocalLocker()
	if redisClient != nil {
		locker = service.NewRedisLocker(redisClient, cfg.ChannelBase+":lock:", cfg.PracticeLockTTL)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attemptRepo := repository.NewPracticeAttemptRepository(db)
	voiceCallRepo := repository.NewVoiceCallRepository(db)
	metricRepo := repository.NewProgressMetricRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	seedRepo := repository.NewSeedRepository(db)

	events := service.NewEventPublisher(natsConn, cfg.ChannelBase, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	progressService := service.NewProgressService(metricRepo, sessionRepo, assignmentRepo, attemptRepo, redisClient, cfg.ProgressCacheTTL, cfg.ChannelBase, validate, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	sessionService := service.NewSessionService(sessionRepo, progressService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, notificationService, progressService, events, validate, logger)
	messageService := service.NewMessageService(messageRepo)
	coachService := service.NewCoachService(coach, validate, logger)
	practiceService := service.NewPracticeService(service.PracticeDeps{
		Attempts:      attemptRepo,
		Assignments:   assignmentRepo,
		Coach:         coach,
		Locker:        locker,
		Events:        events,
		Notifications: notificationService,
		Progress:      progressService,
		Validator:     validate,
		Logger:        logger,
	})
	whatsappService := service.NewWhatsAppService(service.WhatsAppDeps{
		Users:         userRepo,
		Messages:      messageRepo,
		Sessions:      sessionService,
		Coach:         coach,
		Sender:        twilioClient,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	})
	voiceCallService := service.NewVoiceCallService(service.VoiceCallDeps{
		Calls:         voiceCallRepo,
		Users:         userRepo,
		Sessions:      sessionService,
		Placer:        twilioClient,
		Archiver:      archiver,
		Transcriber:   transcriber,
		PublicBaseURL: cfg.PublicBaseURL,
		Validator:     validate,
		Logger:        logger,
	})
	seedService := service.NewSeedService(seedRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	whatsappHandler := handler.NewWhatsAppHandler(whatsappService, logger)
	voiceCallHandler := handler.NewVoiceCallHandler(voiceCallService, logger)

	var webhookMiddleware fiber.Handler
	if cfg.TwilioValidateSignature && cfg.TwilioConfigured() {
		webhookMiddleware = middleware.TwilioSignature(twilio.NewSignatureValidator(cfg.TwilioAuthToken), cfg.PublicBaseURL, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         handler.NewUserHandler(userService, logger),
		SessionHandler:      handler.NewSessionHandler(sessionService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		PracticeHandler:     handler.NewPracticeHandler(practiceService, logger),
		MessageHandler:      handler.NewMessageHandler(messageService, logger),
		CoachHandler:        handler.NewCoachHandler(coachService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		VoiceCallHandler:    voiceCallHandler,
		WhatsAppHandler:     whatsappHandler,
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		WebhookMiddleware:   webhookMiddleware,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationService.Start(ctx)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("ai_provider", cfg.AIProvider).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger, whatsappHandler, voiceCallHandler)
}

type drainer interface {
	Wait()
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, background ...drainer) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	drained := make(chan struct{})
	go func() {
		for _, d := range background {
			d.Wait()
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		logger.Warn().Msg("background webhook processing did not finish before shutdown")
	}

	logger.Info().Msg("server stopped")
}

// buildAI selects the configured provider. A missing API key leaves the coach nil so
// AI endpoints answer 503 instead of failing at startup.
func buildAI(cfg config.Config, logger zerolog.Logger) (service.CoachAI, ai.Transcriber) {
	var transcriber ai.Transcriber = ai.NoopTranscriber{}
	if cfg.OpenAIAPIKey != "" {
		whisper, err := ai.NewOpenAITranscriber(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("transcription disabled")
		} else {
			transcriber = whisper
		}
	}

	var (
		generator ai.Generator
		err       error
	)
	switch cfg.AIProvider {
	case "openai":
		generator, err = ai.NewOpenAIGenerator(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, Logger: logger})
	default:
		generator, err = ai.NewAnthropicGenerator(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel, Logger: logger})
	}
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.AIProvider).Msg("ai provider unavailable")
		return nil, transcriber
	}

	return ai.NewCoach(generator, cfg.AITimeout, logger), transcriber
}
