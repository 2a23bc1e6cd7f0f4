package domain

import (
	"context"
	"time"
)

// ============================================================================
// Health Assistant Chat
// ============================================================================

type ChatRole string

const (
	ChatRoleUser ChatRole = "user"
	ChatRoleAI   ChatRole = "ai"
)

// ChatFallbackReply is returned when the model produced no candidate text.
const ChatFallbackReply = "Sorry, I couldn't understand that."

type ChatMessage struct {
	Role    ChatRole `json:"role" validate:"required,oneof=user ai"`
	Content string   `json:"content" validate:"required,max=4000"`
}

// ChatRequest carries the new prompt plus the turns the client has shown so
// far. The server keeps no chat history.
type ChatRequest struct {
	Prompt  string        `json:"prompt" validate:"required,max=4000"`
	History []ChatMessage `json:"history" validate:"max=20,dive"`
}

type ChatReply struct {
	Message   ChatMessage `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatModel answers free-text prompts in the context of earlier turns.
type ChatModel interface {
	Chat(ctx context.Context, history []ChatMessage, prompt string) (string, error)
}

type ChatUsecase interface {
	Chat(ctx context.Context, userID string, req *ChatRequest) (*ChatReply, error)
}
