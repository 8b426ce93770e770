package service

import "errors"

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates the requested coaching session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrAttemptNotFound indicates the requested practice attempt does not exist.
	ErrAttemptNotFound = errors.New("practice attempt not found")
	// ErrAttemptNotInProgress indicates turns were sent to a finished attempt.
	ErrAttemptNotInProgress = errors.New("practice attempt is not in progress")
	// ErrAttemptAlreadyCompleted indicates a second completion of the same attempt.
	ErrAttemptAlreadyCompleted = errors.New("practice attempt already completed")
	// ErrNoScoredTurns indicates completion was requested before any coach turn was evaluated.
	ErrNoScoredTurns = errors.New("practice attempt has no scored turns")
	// ErrConcurrentAdvance indicates another turn on the same attempt won the race.
	ErrConcurrentAdvance = errors.New("practice attempt was modified concurrently")
	// ErrNoCompletedAttempts indicates a summary was requested before any attempt completed.
	ErrNoCompletedAttempts = errors.New("no completed practice attempts")
	// ErrAIUnavailable indicates no AI provider is configured.
	ErrAIUnavailable = errors.New("ai unavailable")
	// ErrAIProviderFailed wraps upstream generation failures.
	ErrAIProviderFailed = errors.New("ai provider failed")
	// ErrActiveSessionExists indicates the user already has a session in progress.
	ErrActiveSessionExists = errors.New("an active session already exists")
	// ErrInvalidSessionUpdate indicates score or notes were sent for a session that is not completed.
	ErrInvalidSessionUpdate = errors.New("score and notes can only be set on a completed session")
	// ErrNoActiveSession indicates the user has no session in progress.
	ErrNoActiveSession = errors.New("no active session")
	// ErrVoiceCallNotFound indicates the call record does not exist.
	ErrVoiceCallNotFound = errors.New("voice call not found")
	// ErrMessagingUnavailable indicates telephony credentials are missing.
	ErrMessagingUnavailable = errors.New("messaging unavailable")
	// ErrRecordingTooLarge indicates a call recording exceeds what can be archived and transcribed whole.
	ErrRecordingTooLarge = errors.New("recording too large")
	// ErrNotificationNotFound indicates the notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)
