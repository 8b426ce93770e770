package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI generator and transcriber.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

func newOpenAIClient(cfg OpenAIConfig) *openai.Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(config)
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	return &OpenAIGenerator{
		client: newOpenAIClient(cfg),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/heycoach-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Provider returns the provider label.
func (g *OpenAIGenerator) Provider() string {
	return "openai"
}

// Generate sends the chat completion request and returns the first choice.
func (g *OpenAIGenerator) Generate(parent context.Context, req Request) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("persona", req.Persona),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Messages:    messages,
	})
	generationDuration.WithLabelValues(g.Provider(), req.Persona).Observe(time.Since(start).Seconds())
	if err != nil {
		providerErr := &ProviderError{Provider: g.Provider(), Err: err}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			providerErr.StatusCode = apiErr.HTTPStatusCode
		}
		generationFailures.WithLabelValues(g.Provider(), req.Persona).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn().Err(err).Msg("openai request failed")
		return "", providerErr
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		generationFailures.WithLabelValues(g.Provider(), req.Persona).Inc()
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return "", &ProviderError{Provider: g.Provider(), Err: ErrEmptyResponse}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// OpenAITranscriber converts call recordings to text with Whisper.
type OpenAITranscriber struct {
	client *openai.Client
	tracer trace.Tracer
}

// NewOpenAITranscriber builds a Whisper-backed transcriber.
func NewOpenAITranscriber(cfg OpenAIConfig) (*OpenAITranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return &OpenAITranscriber{
		client: newOpenAIClient(cfg),
		tracer: otel.Tracer("github.com/noah-isme/heycoach-api/pkg/ai/openai"),
	}, nil
}

// Transcribe uploads the audio stream and returns the recognised text.
func (t *OpenAITranscriber) Transcribe(parent context.Context, filename string, audio io.Reader) (string, error) {
	ctx, span := t.tracer.Start(parent, "openai.transcribe")
	defer span.End()

	if filename == "" {
		filename = "recording.mp3"
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &ProviderError{Provider: "openai", Err: err}
	}

	return strings.TrimSpace(resp.Text), nil
}
