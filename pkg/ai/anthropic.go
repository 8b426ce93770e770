package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicConfig configures the Anthropic generator.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	Options []option.RequestOption
	Logger  zerolog.Logger
}

// AnthropicGenerator implements Generator against the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicGenerator builds a generator using the provided configuration.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}

	opts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)

	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		tracer: otel.Tracer("github.com/noah-isme/heycoach-api/pkg/ai/anthropic"),
		logger: cfg.Logger.With().Str("component", "anthropic_generator").Logger(),
	}, nil
}

// Provider returns the provider label.
func (g *AnthropicGenerator) Provider() string {
	return "anthropic"
}

// Generate sends the request to Anthropic and returns the first text block.
func (g *AnthropicGenerator) Generate(parent context.Context, req Request) (string, error) {
	ctx, span := g.tracer.Start(parent, "anthropic.generate", trace.WithAttributes(
		attribute.String("model", g.model),
		attribute.String("persona", req.Persona),
		attribute.Int("messages", len(req.Messages)),
	))
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  buildAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	start := time.Now()
	msg, err := g.client.Messages.New(ctx, params)
	generationDuration.WithLabelValues(g.Provider(), req.Persona).Observe(time.Since(start).Seconds())
	if err != nil {
		err = g.wrapError(err)
		generationFailures.WithLabelValues(g.Provider(), req.Persona).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			span.SetAttributes(
				attribute.Int64("usage.input_tokens", msg.Usage.InputTokens),
				attribute.Int64("usage.output_tokens", msg.Usage.OutputTokens),
			)
			return strings.TrimSpace(block.Text), nil
		}
	}

	generationFailures.WithLabelValues(g.Provider(), req.Persona).Inc()
	span.RecordError(ErrEmptyResponse)
	span.SetStatus(codes.Error, ErrEmptyResponse.Error())
	return "", &ProviderError{Provider: g.Provider(), Err: ErrEmptyResponse}
}

func (g *AnthropicGenerator) wrapError(err error) error {
	providerErr := &ProviderError{Provider: g.Provider(), Err: err}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		providerErr.StatusCode = apiErr.StatusCode
	}
	g.logger.Warn().Err(err).Int("status", providerErr.StatusCode).Msg("anthropic request failed")
	return providerErr
}

func buildAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out[i] = anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		}
	}
	return out
}
