package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"
	"heather-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
)

type messagingUsecase struct {
	convs    domain.ConversationRepository
	msgs     domain.MessageRepository
	profiles domain.ProfileRepository
	broker   domain.MessageBroker
	notifier domain.ConversationNotifier
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewMessagingUsecase wires messaging. notifier may be nil.
func NewMessagingUsecase(
	convs domain.ConversationRepository,
	msgs domain.MessageRepository,
	profiles domain.ProfileRepository,
	broker domain.MessageBroker,
	notifier domain.ConversationNotifier,
	validate *validator.Validate,
) domain.MessagingUsecase {
	return &messagingUsecase{
		convs:    convs,
		msgs:     msgs,
		profiles: profiles,
		broker:   broker,
		notifier: notifier,
		validate: validate,
		log:      logger.Get().With("component", "messaging"),
		now:      time.Now,
	}
}

func (u *messagingUsecase) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	convs, err := u.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return convs, nil
}

func (u *messagingUsecase) CreateConversation(ctx context.Context, userID string, req *domain.CreateConversationRequest) (*domain.Conversation, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}
	if userID != req.PatientID && userID != req.DoctorID {
		return nil, apperror.Forbidden("You can only start conversations you take part in")
	}

	rows, err := u.profiles.GetByIDs(ctx, []string{req.PatientID, req.DoctorID})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	var patient, doctor *domain.ProfileRow
	for i := range rows {
		switch rows[i].ID {
		case req.PatientID:
			patient = &rows[i]
		case req.DoctorID:
			doctor = &rows[i]
		}
	}
	if patient == nil || doctor == nil {
		return nil, apperror.NotFound("Patient or doctor profile not found")
	}
	if doctor.Role != domain.RoleDoctor || patient.Role != domain.RolePatient {
		return nil, apperror.BadRequest("Conversations are between a patient and a doctor")
	}

	status := domain.ConversationActive
	conv := &domain.Conversation{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Status:    &status,
	}
	if err := u.convs.Create(ctx, conv); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.Internal(err)
	}

	if u.notifier != nil && u.notifier.IsConfigured() {
		if err := u.notifier.NotifyNewConversation(ctx, doctor, patient); err != nil {
			u.log.Warn("new conversation email not sent", "conversation_id", conv.ID, "error", err)
		}
	}
	return conv, nil
}

func (u *messagingUsecase) ListMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error) {
	if _, err := u.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := u.msgs.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return msgs, nil
}

// SendMessage stores the message, bumps the conversation and publishes the
// message to live subscribers. Bump and publish failures are logged only.
func (u *messagingUsecase) SendMessage(ctx context.Context, userID, conversationID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	conv, err := u.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	msgType := domain.MessageTypeText
	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        req.Content,
		MessageType:    &msgType,
	}
	if err := u.msgs.Create(ctx, msg); err != nil {
		return nil, apperror.Internal(err)
	}

	if err := u.convs.Touch(ctx, conv.ID, u.now()); err != nil {
		u.log.Warn("conversation timestamp not updated", "conversation_id", conv.ID, "error", err)
	}
	if err := u.broker.Publish(ctx, msg); err != nil {
		u.log.Warn("message not published", "conversation_id", conv.ID, "message_id", msg.ID, "error", err)
	}
	return msg, nil
}

func (u *messagingUsecase) Subscribe(ctx context.Context, userID, conversationID string) (<-chan domain.Message, func(), error) {
	if _, err := u.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, nil, err
	}
	ch, cancel, err := u.broker.Subscribe(ctx, conversationID)
	if err != nil {
		return nil, nil, apperror.ServiceUnavailable("Live updates are unavailable", err)
	}
	return ch, cancel, nil
}

func (u *messagingUsecase) participantConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	conv, err := u.convs.GetByID(ctx, conversationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperror.Forbidden("You are not a participant in this conversation")
	}
	return conv, nil
}
