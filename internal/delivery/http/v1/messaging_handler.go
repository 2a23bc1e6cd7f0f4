package v1

import (
	"io"
	"net/http"
	"time"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// streamHeartbeat keeps idle SSE connections open through proxies.
const streamHeartbeat = 25 * time.Second

type MessagingHandler struct {
	messagingUC domain.MessagingUsecase
}

func NewMessagingHandler(r *gin.RouterGroup, messagingUC domain.MessagingUsecase) {
	handler := &MessagingHandler{messagingUC: messagingUC}

	conversations := r.Group("/conversations")
	{
		conversations.GET("", handler.ListConversations)
		conversations.POST("", handler.CreateConversation)
		conversations.GET("/:id/messages", handler.ListMessages)
		conversations.POST("/:id/messages", handler.SendMessage)
		conversations.GET("/:id/stream", handler.Stream)
	}
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Conversations the user takes part in, most recently active first
// @Tags         messaging
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Conversation}
// @Failure      401  {object}  response.Response
// @Router       /conversations [get]
// @Security     BearerAuth
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	convs, err := h.messagingUC.ListConversations(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Conversations", convs)
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Description  Opens a conversation between a patient and a doctor
// @Tags         messaging
// @Accept       json
// @Produce      json
// @Param        conversation  body      domain.CreateConversationRequest  true  "Participants"
// @Success      201           {object}  response.Response{data=domain.Conversation}
// @Failure      400           {object}  response.Response
// @Failure      403           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /conversations [post]
// @Security     BearerAuth
func (h *MessagingHandler) CreateConversation(c *gin.Context) {
	var req domain.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	conv, err := h.messagingUC.CreateConversation(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Conversation created", conv)
}

// ListMessages godoc
// @Summary      List messages
// @Description  Messages of a conversation, oldest first
// @Tags         messaging
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  response.Response{data=[]domain.Message}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /conversations/{id}/messages [get]
// @Security     BearerAuth
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	msgs, err := h.messagingUC.ListMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Messages", msgs)
}

// SendMessage godoc
// @Summary      Send a message
// @Tags         messaging
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Conversation ID"
// @Param        message  body      domain.SendMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=domain.Message}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /conversations/{id}/messages [post]
// @Security     BearerAuth
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	msg, err := h.messagingUC.SendMessage(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Message sent", msg)
}

// Stream godoc
// @Summary      Stream new messages
// @Description  Server-sent events, one "message" event per new message
// @Tags         messaging
// @Produce      text/event-stream
// @Param        id   path  string  true  "Conversation ID"
// @Success      200
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /conversations/{id}/stream [get]
// @Security     BearerAuth
func (h *MessagingHandler) Stream(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))
	ctx := c.Request.Context()

	msgs, cancel, err := h.messagingUC.Subscribe(ctx, userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
