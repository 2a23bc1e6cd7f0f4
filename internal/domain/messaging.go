package domain

import (
	"context"
	"time"
)

// ============================================================================
// Conversations & Messages
// ============================================================================

const (
	ConversationActive = "active"
	MessageTypeText    = "text"
)

type Conversation struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id"`
	DoctorID  string     `json:"doctor_id"`
	Status    *string    `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is the patient or the doctor.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.PatientID == userID || c.DoctorID == userID)
}

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	MessageType    *string    `json:"message_type"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type CreateConversationRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	DoctorID  string `json:"doctor_id" validate:"required,uuid,nefield=PatientID"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// ============================================================================
// Interfaces
// ============================================================================

type ConversationRepository interface {
	ListForUser(ctx context.Context, userID string) ([]Conversation, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	Create(ctx context.Context, conv *Conversation) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type MessageRepository interface {
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
	Create(ctx context.Context, msg *Message) error
}

// MessageBroker fans new messages out to live subscribers of a conversation.
type MessageBroker interface {
	Publish(ctx context.Context, msg *Message) error
	Subscribe(ctx context.Context, conversationID string) (<-chan Message, func(), error)
}

// ConversationNotifier tells a doctor a patient opened a conversation.
type ConversationNotifier interface {
	IsConfigured() bool
	NotifyNewConversation(ctx context.Context, doctor *ProfileRow, patient *ProfileRow) error
}

type MessagingUsecase interface {
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	CreateConversation(ctx context.Context, userID string, req *CreateConversationRequest) (*Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID string) ([]Message, error)
	SendMessage(ctx context.Context, userID, conversationID string, req *SendMessageRequest) (*Message, error)
	Subscribe(ctx context.Context, userID, conversationID string) (<-chan Message, func(), error)
}
