package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"
	"heather-backend/pkg/logger"
	"heather-backend/pkg/security"
	"heather-backend/pkg/security/antivirus"

	"github.com/go-playground/validator/v10"
)

// UploadAuditor records rejected uploads. security.SecurityLogger
// satisfies it.
type UploadAuditor interface {
	LogUploadRejected(ctx context.Context, userID, fileName, reason string)
	LogUploadQuotaExceeded(ctx context.Context, userID string)
}

type analysisUsecase struct {
	analyzer domain.DocumentAnalyzer
	quota    domain.UploadQuota
	archive  domain.DocumentArchive
	scanner  antivirus.Scanner
	audit    UploadAuditor
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewAnalysisUsecase wires document analysis. archive may be nil; a nil
// scanner means no malware scanning.
func NewAnalysisUsecase(
	analyzer domain.DocumentAnalyzer,
	quota domain.UploadQuota,
	archive domain.DocumentArchive,
	scanner antivirus.Scanner,
	audit UploadAuditor,
	validate *validator.Validate,
) domain.AnalysisUsecase {
	if scanner == nil {
		scanner = antivirus.NoOpScanner{}
	}
	return &analysisUsecase{
		analyzer: analyzer,
		quota:    quota,
		archive:  archive,
		scanner:  scanner,
		audit:    audit,
		validate: validate,
		log:      logger.Get().With("component", "analysis"),
		now:      time.Now,
	}
}

// AnalysisPrompt is the instruction sent alongside the document.
func AnalysisPrompt(description string) string {
	return fmt.Sprintf(`Please analyze this medical document and provide insights based on the patient's description: "%s". 

Please provide:
1. Summary of key findings from the document
2. Potential health concerns or abnormalities
3. Recommendations for follow-up care
4. Important notes or warnings

Remember to be professional and note that this analysis is for informational purposes only and should not replace professional medical advice.`, description)
}

func (u *analysisUsecase) Analyze(ctx context.Context, userID string, req *domain.HealthAnalysisRequest) (*domain.HealthAnalysis, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(req.PDFData)
	if err != nil {
		return nil, apperror.BadRequest("PDF document is not valid base64")
	}

	fileName := security.SanitizeFileName(req.FileName)
	if res := security.ValidateDocument(fileName, data); !res.Valid {
		u.audit.LogUploadRejected(ctx, userID, fileName, res.Err.Error())
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid document: %v", res.Err))
	}

	allowed, err := u.quota.Allow(ctx, userID)
	if err != nil {
		u.log.Warn("upload quota check failed, allowing request", "user_id", userID, "error", err)
		allowed = true
	}
	if !allowed {
		u.audit.LogUploadQuotaExceeded(ctx, userID)
		return nil, apperror.TooManyRequests("Daily analysis limit reached, please try again tomorrow")
	}

	scan := u.scanner.Scan(ctx, fileName, data)
	if scan.Err != nil {
		u.audit.LogUploadRejected(ctx, userID, fileName, "scan failed: "+scan.Err.Error())
		return nil, apperror.ServiceUnavailable("Document scanning is unavailable, please try again later", scan.Err)
	}
	if scan.Infected {
		u.audit.LogUploadRejected(ctx, userID, fileName, "malware: "+scan.ThreatName)
		return nil, apperror.BadRequest("Document failed the malware scan")
	}

	var key string
	if u.archive != nil {
		key, err = u.archive.Store(ctx, userID, fileName, data)
		if err != nil {
			u.log.Warn("document not archived", "user_id", userID, "error", err)
			key = ""
		}
	}

	analysis, err := u.analyzer.AnalyzeDocument(ctx, AnalysisPrompt(req.Description), data)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, apperror.ServiceUnavailable("Document analysis is not configured", err)
		}
		return nil, apperror.BadGateway("Failed to analyze document", err)
	}

	return &domain.HealthAnalysis{
		Analysis:    analysis,
		FileName:    req.FileName,
		Timestamp:   u.now().UTC(),
		DocumentKey: key,
	}, nil
}
