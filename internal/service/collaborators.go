package service

import (
	"context"
	"fmt"
	"io"

	"github.com/noah-isme/heycoach-api/pkg/ai"
)

// CoachAI is the persona-conditioned generation used by the services. *ai.Coach implements it.
type CoachAI interface {
	Respond(ctx context.Context, coaching ai.CoachingContext) (string, error)
	SimulateClient(ctx context.Context, scenario string, history []ai.Message) (string, error)
	Evaluate(ctx context.Context, input ai.EvaluationInput) (ai.EvaluationOutcome, error)
	Summarize(ctx context.Context, attempts []ai.AttemptDigest) (string, error)
}

// MessageSender delivers outbound channel messages.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) (string, error)
}

// CallPlacer places telephony calls and fetches their recordings.
type CallPlacer interface {
	InitiateCall(ctx context.Context, to, callbackURL, statusCallbackURL string) (string, error)
	LatestRecordingURL(ctx context.Context, callSID string) (string, bool, error)
	DownloadRecording(ctx context.Context, url string) (io.ReadCloser, error)
}

// RecordingArchiver stores call audio durably and returns its URL.
type RecordingArchiver interface {
	ArchiveRecording(ctx context.Context, name string, audio io.Reader) (string, error)
}

func wrapAIError(err error) error {
	return fmt.Errorf("%w: %w", ErrAIProviderFailed, err)
}
