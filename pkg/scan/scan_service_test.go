package scan

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"nutriscan/domain"
	"nutriscan/entities"
	"nutriscan/pkg/inference"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanRepository struct {
	scans     []*entities.Scan
	appendErr error
	listErr   error
}

func (r *fakeScanRepository) Append(_ context.Context, scan *entities.Scan) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.scans = append([]*entities.Scan{scan}, r.scans...)
	return nil
}

func (r *fakeScanRepository) List(_ context.Context, _ string, limit int) ([]*entities.Scan, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if len(r.scans) > limit {
		return r.scans[:limit], nil
	}
	return r.scans, nil
}

type fakeS3 struct {
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (s *fakeS3) UploadFile(fileName string, file *multipart.FileHeader, dir string, _ ...string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	key := dir + "/" + fileName + ".png"
	s.uploaded = append(s.uploaded, key)
	return key, nil
}

func (s *fakeS3) UpdateFile(objectKey string, _ *multipart.FileHeader, _ ...string) (string, error) {
	return objectKey, nil
}

func (s *fakeS3) DeleteFile(objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func (s *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.s3.region.amazonaws.com/" + objectKey
}

func (s *fakeS3) GetObjectKeyFromLink(link string) string { return link }

type fakeRecognizer struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeRecognizer) Name() string { return f.name }

func (f *fakeRecognizer) RecognizeText(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeClassifier struct {
	name        string
	predictions []inference.Prediction
	err         error
	calls       int
}

func (f *fakeClassifier) Name() string { return f.name }

func (f *fakeClassifier) ClassifyImage(_ context.Context, _ []byte, _ string, _ int) ([]inference.Prediction, error) {
	f.calls++
	return f.predictions, f.err
}

// imageFileHeader builds a real multipart.FileHeader so req.Image.Open works.
func imageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func TestAnalyzeRejectsInvalidFormatBeforeBackends(t *testing.T) {
	repo := &fakeScanRepository{}
	recognizer := &fakeRecognizer{name: "remote"}
	classifier := &fakeClassifier{name: "remote"}
	orchestrator := inference.NewOrchestrator(
		[]inference.TextRecognizer{recognizer},
		[]inference.ImageClassifier{classifier},
		nil,
	)
	service := NewScanService(repo, orchestrator, &fakeS3{})

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "photo.gif", []byte("gif")),
		ScanType: domain.ScanTypeFood,
	}
	_, err := service.Analyze(context.Background(), req, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrInvalidImageFormat)
	assert.Equal(t, 0, recognizer.calls)
	assert.Equal(t, 0, classifier.calls)
	assert.Empty(t, repo.scans)
}

func TestAnalyzeRejectsOversizedImage(t *testing.T) {
	service := NewScanService(&fakeScanRepository{}, inference.NewOrchestrator(nil, nil, nil), &fakeS3{})

	oversized := &multipart.FileHeader{Filename: "big.png", Size: domain.MaxImageSize + 1}
	req := domain.AnalyzeRequest{Image: oversized, ScanType: domain.ScanTypeLabel}
	_, err := service.Analyze(context.Background(), req, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrImageTooLarge)
}

func TestAnalyzeRejectsUnknownScanType(t *testing.T) {
	service := NewScanService(&fakeScanRepository{}, inference.NewOrchestrator(nil, nil, nil), &fakeS3{})

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "photo.png", []byte("png")),
		ScanType: "barcode",
	}
	_, err := service.Analyze(context.Background(), req, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrInvalidScanType)
}

func TestAnalyzeFoodFallsBackToSecondTier(t *testing.T) {
	repo := &fakeScanRepository{}
	s3 := &fakeS3{}
	remote := &fakeClassifier{name: "remote", err: errors.New("connection refused")}
	local := &fakeClassifier{name: "local", predictions: []inference.Prediction{{Label: "pizza", Score: 0.92}}}
	orchestrator := inference.NewOrchestrator(nil, []inference.ImageClassifier{remote, local}, nil)
	service := NewScanService(repo, orchestrator, s3)

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "dinner.png", []byte("png-bytes")),
		ScanType: domain.ScanTypeFood,
	}
	res, err := service.Analyze(context.Background(), req, uuid.New().String())

	require.NoError(t, err)
	assert.Equal(t, "Food: Pizza (92.0%)", res.QuickVerdict)
	assert.Equal(t, res.QuickVerdict, res.OcrText)
	assert.Equal(t, domain.ScanTypeFood, res.ScanType)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 1, local.calls)
	require.Len(t, repo.scans, 1)
	assert.Equal(t, res.QuickVerdict, repo.scans[0].QuickVerdict)
	assert.Len(t, s3.uploaded, 1)
}

func TestAnalyzeLabelStoresRecognizedText(t *testing.T) {
	repo := &fakeScanRepository{}
	recognizer := &fakeRecognizer{name: "remote", text: "Calories: 120\nSugar: 5g"}
	orchestrator := inference.NewOrchestrator([]inference.TextRecognizer{recognizer}, nil, nil)
	service := NewScanService(repo, orchestrator, &fakeS3{})

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "label.jpg", []byte("jpg-bytes")),
		ScanType: domain.ScanTypeLabel,
	}
	res, err := service.Analyze(context.Background(), req, uuid.New().String())

	require.NoError(t, err)
	assert.Equal(t, "Label: Calories: 120", res.QuickVerdict)
	assert.Equal(t, "Calories: 120\nSugar: 5g", res.OcrText)
	require.Len(t, repo.scans, 1)
	assert.Equal(t, "Calories: 120\nSugar: 5g", repo.scans[0].OcrText)
}

func TestAnalyzeAllBackendsFail(t *testing.T) {
	repo := &fakeScanRepository{}
	s3 := &fakeS3{}
	remote := &fakeClassifier{name: "remote", err: errors.New("quota exceeded")}
	local := &fakeClassifier{name: "local", err: errors.New("not running")}
	orchestrator := inference.NewOrchestrator(nil, []inference.ImageClassifier{remote, local}, nil)
	service := NewScanService(repo, orchestrator, s3)

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "dinner.png", []byte("png-bytes")),
		ScanType: domain.ScanTypeFood,
	}
	_, err := service.Analyze(context.Background(), req, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrAnalysisFailed)
	assert.Empty(t, repo.scans)
	assert.Empty(t, s3.uploaded)
}

func TestAnalyzeAppendFailureCleansUpUpload(t *testing.T) {
	repo := &fakeScanRepository{appendErr: errors.New("connection reset")}
	s3 := &fakeS3{}
	classifier := &fakeClassifier{name: "remote", predictions: []inference.Prediction{{Label: "salad", Score: 0.7}}}
	orchestrator := inference.NewOrchestrator(nil, []inference.ImageClassifier{classifier}, nil)
	service := NewScanService(repo, orchestrator, s3)

	req := domain.AnalyzeRequest{
		Image:    imageFileHeader(t, "lunch.png", []byte("png-bytes")),
		ScanType: domain.ScanTypeFood,
	}
	_, err := service.Analyze(context.Background(), req, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrSaveScanFailed)
	require.Len(t, s3.uploaded, 1)
	assert.Equal(t, s3.uploaded, s3.deleted)
}

func TestGetHistoryMapsStoredScans(t *testing.T) {
	userID := uuid.New()
	repo := &fakeScanRepository{scans: []*entities.Scan{
		{
			ID:           uuid.New(),
			UserID:       userID,
			Filename:     "https://bucket.s3.region.amazonaws.com/scans/one.png",
			ScanType:     domain.ScanTypeFood,
			QuickVerdict: "Food: Pizza (92.0%)",
			OcrText:      "Food: Pizza (92.0%)",
		},
	}}
	service := NewScanService(repo, inference.NewOrchestrator(nil, nil, nil), &fakeS3{})

	items, err := service.GetHistory(context.Background(), userID.String())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Food: Pizza (92.0%)", items[0].QuickVerdict)
	assert.Equal(t, domain.ScanTypeFood, items[0].ScanType)
}

func TestGetHistoryRejectsMalformedUserID(t *testing.T) {
	service := NewScanService(&fakeScanRepository{}, inference.NewOrchestrator(nil, nil, nil), &fakeS3{})

	_, err := service.GetHistory(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, domain.ErrParseUUID)
}
