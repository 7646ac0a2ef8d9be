package scan

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"nutriscan/domain"
	"nutriscan/entities"
	"nutriscan/internal/utils/storage"
	"nutriscan/pkg/inference"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	ScanService interface {
		Analyze(ctx context.Context, req domain.AnalyzeRequest, userID string) (domain.AnalyzeResponse, error)
		GetHistory(ctx context.Context, userID string) ([]domain.ScanHistoryItem, error)
	}

	scanService struct {
		scanRepository ScanRepository
		orchestrator   *inference.Orchestrator
		s3             storage.AwsS3
	}
)

func NewScanService(scanRepository ScanRepository, orchestrator *inference.Orchestrator, s3 storage.AwsS3) ScanService {
	return &scanService{
		scanRepository: scanRepository,
		orchestrator:   orchestrator,
		s3:             s3,
	}
}

func validateImage(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, a := range storage.AllowImage {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.ErrInvalidImageFormat
	}
	if file.Size > domain.MaxImageSize {
		return domain.ErrImageTooLarge
	}
	return nil
}

func mimeTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func (s *scanService) Analyze(ctx context.Context, req domain.AnalyzeRequest, userID string) (domain.AnalyzeResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.AnalyzeResponse{}, domain.ErrParseUUID
	}

	// Input rejection happens before any backend is invoked.
	if req.ScanType != domain.ScanTypeLabel && req.ScanType != domain.ScanTypeFood {
		return domain.AnalyzeResponse{}, domain.ErrInvalidScanType
	}
	if err := validateImage(req.Image); err != nil {
		return domain.AnalyzeResponse{}, err
	}

	file, err := req.Image.Open()
	if err != nil {
		return domain.AnalyzeResponse{}, err
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return domain.AnalyzeResponse{}, err
	}
	mimeType := mimeTypeFromFilename(req.Image.Filename)

	var (
		verdict string
		ocrText string
		report  []domain.DetailedReportRow
		backend string
	)

	switch req.ScanType {
	case domain.ScanTypeLabel:
		var text string
		text, backend, err = s.orchestrator.RecognizeText(ctx, image, mimeType)
		if err != nil {
			log.Printf("label scan failed: %v", err)
			return domain.AnalyzeResponse{}, domain.ErrAnalysisFailed
		}
		verdict, report = inference.NormalizeLabel(text)
		ocrText = text

	case domain.ScanTypeFood:
		var predictions []inference.Prediction
		predictions, backend, err = s.orchestrator.ClassifyImage(ctx, image, mimeType, inference.MaxReportRows)
		if err != nil {
			log.Printf("food scan failed: %v", err)
			return domain.AnalyzeResponse{}, domain.ErrAnalysisFailed
		}
		verdict, report, err = inference.NormalizeFood(predictions)
		if err != nil {
			return domain.AnalyzeResponse{}, err
		}
		// The stored free-text field doubles as the verdict for food scans,
		// mirroring what the history and chat context expect to read back.
		ocrText = verdict
	}

	createdAt := time.Now().UTC()
	fileName := fmt.Sprintf("scan-%s", uuid.New().String())

	objectKey, err := s.s3.UploadFile(fileName, req.Image, "scans", storage.AllowImage...)
	if err != nil {
		log.Printf("scan image upload failed: %v", err)
		return domain.AnalyzeResponse{}, domain.ErrSaveScanFailed
	}
	link := s.s3.GetPublicLinkKey(objectKey)

	scan := &entities.Scan{
		ID:           uuid.New(),
		UserID:       userUUID,
		Filename:     link,
		ScanType:     req.ScanType,
		QuickVerdict: verdict,
		OcrText:      ocrText,
		Timestamp: entities.Timestamp{
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
	}

	if err := s.scanRepository.Append(ctx, scan); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		log.Printf("scan record append failed: %v", err)
		return domain.AnalyzeResponse{}, domain.ErrSaveScanFailed
	}

	log.Printf("scan %s analyzed via %s backend", scan.ID, backend)

	return domain.AnalyzeResponse{
		Timestamp:      scan.CreatedAt,
		Filename:       scan.Filename,
		OcrText:        scan.OcrText,
		QuickVerdict:   scan.QuickVerdict,
		DetailedReport: report,
		ScanType:       scan.ScanType,
	}, nil
}

func (s *scanService) GetHistory(ctx context.Context, userID string) ([]domain.ScanHistoryItem, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrParseUUID
	}

	scans, err := s.scanRepository.List(ctx, userID, domain.HistoryLimit)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ScanHistoryItem, 0, len(scans))
	for _, scan := range scans {
		items = append(items, domain.ScanHistoryItem{
			Timestamp:    scan.CreatedAt,
			Filename:     scan.Filename,
			OcrText:      scan.OcrText,
			QuickVerdict: scan.QuickVerdict,
			ScanType:     scan.ScanType,
		})
	}

	return items, nil
}
