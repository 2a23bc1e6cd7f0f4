package v1

import (
	"errors"
	"net/http"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// maxAnalysisBody bounds the JSON body: a 10 MB PDF grows by a third in base64.
const maxAnalysisBody = 14 << 20

type AnalysisHandler struct {
	analysisUC domain.AnalysisUsecase
}

func NewAnalysisHandler(r *gin.RouterGroup, analysisUC domain.AnalysisUsecase, limit gin.HandlerFunc) {
	handler := &AnalysisHandler{analysisUC: analysisUC}

	if limit != nil {
		r.POST("/analyze-health-document", limit, handler.Analyze)
		return
	}
	r.POST("/analyze-health-document", handler.Analyze)
}

// Analyze godoc
// @Summary      Analyze a health document
// @Description  Sends a PDF and a description to the model and returns its plain-language analysis
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        document  body      domain.HealthAnalysisRequest  true  "Base64 PDF and description"
// @Success      200       {object}  response.Response{data=domain.HealthAnalysis}
// @Failure      400       {object}  response.Response
// @Failure      413       {object}  response.Response
// @Failure      429       {object}  response.Response
// @Failure      502       {object}  response.Response
// @Failure      503       {object}  response.Response
// @Router       /analyze-health-document [post]
// @Security     BearerAuth
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAnalysisBody)

	var req domain.HealthAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(apperror.New(http.StatusRequestEntityTooLarge, "Document too large", err))
			return
		}
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	result, err := h.analysisUC.Analyze(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Analysis complete", result)
}
