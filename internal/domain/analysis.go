package domain

import (
	"context"
	"time"
)

// ============================================================================
// Health Document Analysis
// ============================================================================

// NoAnalysisAvailable is returned when the model produced no candidate text.
const NoAnalysisAvailable = "No analysis available"

type HealthAnalysisRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	PDFData     string `json:"pdfData" validate:"required,base64"`
	FileName    string `json:"fileName" validate:"required,max=255"`
}

type HealthAnalysis struct {
	Analysis    string    `json:"analysis"`
	FileName    string    `json:"fileName"`
	Timestamp   time.Time `json:"timestamp"`
	DocumentKey string    `json:"documentKey,omitempty"`
}

// DocumentAnalyzer sends a PDF plus instructions to a generative model.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, prompt string, pdf []byte) (string, error)
}

// DocumentArchive keeps a copy of analysed documents.
type DocumentArchive interface {
	Store(ctx context.Context, userID, fileName string, data []byte) (string, error)
}

// UploadQuota limits how many documents a user may submit.
type UploadQuota interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

type AnalysisUsecase interface {
	Analyze(ctx context.Context, userID string, req *HealthAnalysisRequest) (*HealthAnalysis, error)
}
