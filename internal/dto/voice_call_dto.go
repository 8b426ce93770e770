package dto

// VoiceCallCreateRequest dials the user of a voice session.
type VoiceCallCreateRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=64"`
}

// VoiceCallStatusCallback is the form Twilio posts on call progress.
type VoiceCallStatusCallback struct {
	CallSID      string `form:"CallSid" validate:"required"`
	CallStatus   string `form:"CallStatus" validate:"required"`
	CallDuration string `form:"CallDuration"`
}
