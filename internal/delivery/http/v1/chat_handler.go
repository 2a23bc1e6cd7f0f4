package v1

import (
	"net/http"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const maxChatBody = 256 << 10

type ChatHandler struct {
	chatUC domain.ChatUsecase
}

func NewChatHandler(r *gin.RouterGroup, chatUC domain.ChatUsecase, limit gin.HandlerFunc) {
	handler := &ChatHandler{chatUC: chatUC}

	if limit != nil {
		r.POST("/chat", limit, handler.Chat)
		return
	}
	r.POST("/chat", handler.Chat)
}

// Chat godoc
// @Summary      Ask the health assistant
// @Description  Sends a prompt and the visible chat history to the model and returns its reply
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        chat  body      domain.ChatRequest  true  "Prompt and history"
// @Success      200   {object}  response.Response{data=domain.ChatReply}
// @Failure      400   {object}  response.Response
// @Failure      429   {object}  response.Response
// @Failure      502   {object}  response.Response
// @Failure      503   {object}  response.Response
// @Router       /chat [post]
// @Security     BearerAuth
func (h *ChatHandler) Chat(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxChatBody)

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	reply, err := h.chatUC.Chat(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Response received", reply)
}
