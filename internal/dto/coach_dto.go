package dto

import "github.com/noah-isme/heycoach-api/pkg/ai"

// ChatMessage is one message of a free-form coaching chat.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

// CoachChatRequest asks the coach persona for the next reply.
type CoachChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=100,dive"`
	UserInfo *ai.UserInfo  `json:"userInfo"`
}

// CoachChatResponse wraps the coach reply.
type CoachChatResponse struct {
	Response string `json:"response"`
}
