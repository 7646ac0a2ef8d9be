package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

const (
	ScanTypeLabel = "label"
	ScanTypeFood  = "food"

	// HistoryLimit caps how many scans are retained per user.
	HistoryLimit = 30

	// MaxImageSize is the upload cap for scan images (10 MiB).
	MaxImageSize = 10 << 20
)

var (
	MessageSuccessAnalyze    = "image analyzed successfully"
	MessageSuccessGetHistory = "scan history retrieved successfully"

	MessageFailedAnalyze    = "failed to analyze image"
	MessageFailedGetHistory = "failed to retrieve scan history"

	ErrInvalidScanType       = errors.New("scan type must be label or food")
	ErrInvalidImageFormat    = errors.New("invalid image format")
	ErrImageTooLarge         = errors.New("image exceeds maximum size")
	ErrAnalysisFailed        = errors.New("analysis failed on every backend")
	ErrUninterpretableResult = errors.New("backend returned an uninterpretable result")
	ErrSaveScanFailed        = errors.New("failed to save scan record")
)

type (
	AnalyzeRequest struct {
		Image    *multipart.FileHeader `json:"image" form:"image" validate:"required"`
		ScanType string                `json:"scan_type" form:"scan_type" validate:"required,oneof=label food"`
	}

	DetailedReportRow struct {
		Label  string `json:"label"`
		Impact string `json:"impact"`
	}

	AnalyzeResponse struct {
		Timestamp      time.Time           `json:"timestamp"`
		Filename       string              `json:"filename"`
		OcrText        string              `json:"ocr_text"`
		QuickVerdict   string              `json:"quick_verdict"`
		DetailedReport []DetailedReportRow `json:"detailed_report"`
		ScanType       string              `json:"type"`
	}

	ScanHistoryItem struct {
		Timestamp    time.Time `json:"timestamp"`
		Filename     string    `json:"filename"`
		OcrText      string    `json:"ocr_text"`
		QuickVerdict string    `json:"quick_verdict"`
		ScanType     string    `json:"type"`
	}
)
