package ai

import (
	"context"
	"io"
)

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// NoopTranscriber is used when no speech-to-text provider is configured.
type NoopTranscriber struct{}

// PendingTranscription is stored in place of a transcript when none can be produced.
const PendingTranscription = "Transcription unavailable"

// Transcribe returns the placeholder without reading the audio.
func (NoopTranscriber) Transcribe(context.Context, string, io.Reader) (string, error) {
	return PendingTranscription, nil
}
