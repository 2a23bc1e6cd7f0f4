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

type chatUsecase struct {
	model    domain.ChatModel
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewChatUsecase(model domain.ChatModel, validate *validator.Validate) domain.ChatUsecase {
	return &chatUsecase{
		model:    model,
		validate: validate,
		log:      logger.Get().With("component", "chat"),
		now:      time.Now,
	}
}

// Chat forwards the prompt and history to the model and returns its reply as
// the next "ai" turn.
func (u *chatUsecase) Chat(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatReply, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	text, err := u.model.Chat(ctx, req.History, req.Prompt)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, apperror.ServiceUnavailable("Chat assistant is not configured", err)
		}
		u.log.Warn("chat model call failed", "user_id", userID, "error", err)
		return nil, apperror.BadGateway("There was an error contacting the assistant", err)
	}

	return &domain.ChatReply{
		Message:   domain.ChatMessage{Role: domain.ChatRoleAI, Content: text},
		Timestamp: u.now().UTC(),
	}, nil
}
