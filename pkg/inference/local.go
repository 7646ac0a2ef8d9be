package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"
)

const LocalBackendName = "local"

// LocalAdapter talks to the on-host model service over HTTP. It guarantees
// availability without network dependency and is the second tier of every
// fallback chain. The service is probed once on first use; a failed probe
// turns this into a permanently failing adapter rather than crashing the
// process.
type LocalAdapter struct {
	baseURL string
	client  *http.Client

	initOnce sync.Once
	initErr  error
}

func NewLocalAdapter(baseURL string) *LocalAdapter {
	return &LocalAdapter{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *LocalAdapter) Name() string { return LocalBackendName }

func (a *LocalAdapter) ensureReady() error {
	a.initOnce.Do(func() {
		if a.baseURL == "" {
			a.initErr = fmt.Errorf("LOCAL_AI_URL not configured")
			log.Printf("local model service disabled: %v", a.initErr)
			return
		}

		resp, err := a.client.Get(a.baseURL + "/health")
		if err != nil {
			a.initErr = fmt.Errorf("model service unreachable: %w", err)
			log.Printf("local model service disabled: %v", a.initErr)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			a.initErr = fmt.Errorf("model service health check returned %s", resp.Status)
			log.Printf("local model service disabled: %v", a.initErr)
		}
	})
	return a.initErr
}

func (a *LocalAdapter) postImage(ctx context.Context, path string, image []byte, fileName string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", fileName)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(image); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model service error: %s - %s", resp.Status, string(respBody))
	}

	return io.ReadAll(resp.Body)
}

func fileNameForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "image.png"
	case "image/webp":
		return "image.webp"
	default:
		return "image.jpg"
	}
}

func (a *LocalAdapter) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if err := a.ensureReady(); err != nil {
		return "", backendErr(LocalBackendName, err)
	}

	raw, err := a.postImage(ctx, "/ocr", image, fileNameForMime(mimeType))
	if err != nil {
		return "", backendErr(LocalBackendName, err)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", backendErrf(LocalBackendName, "bad OCR response: %v", err)
	}

	return strings.TrimSpace(out.Text), nil
}

func (a *LocalAdapter) ClassifyImage(ctx context.Context, image []byte, mimeType string, limit int) ([]Prediction, error) {
	if err := a.ensureReady(); err != nil {
		return nil, backendErr(LocalBackendName, err)
	}

	path := fmt.Sprintf("/classify?top_k=%d", limit)
	raw, err := a.postImage(ctx, path, image, fileNameForMime(mimeType))
	if err != nil {
		return nil, backendErr(LocalBackendName, err)
	}

	var out struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, backendErrf(LocalBackendName, "bad classification response: %v", err)
	}
	if len(out.Predictions) == 0 {
		return nil, backendErrf(LocalBackendName, "classification returned no candidates")
	}

	if limit > 0 && len(out.Predictions) > limit {
		out.Predictions = out.Predictions[:limit]
	}
	return out.Predictions, nil
}

func (a *LocalAdapter) GenerateReply(ctx context.Context, systemContext string, userMessage string) (string, error) {
	if err := a.ensureReady(); err != nil {
		return "", backendErr(LocalBackendName, err)
	}

	payload, err := json.Marshal(map[string]string{
		"prompt": BuildChatPrompt(systemContext, userMessage),
	})
	if err != nil {
		return "", backendErr(LocalBackendName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate", bytes.NewBuffer(payload))
	if err != nil {
		return "", backendErr(LocalBackendName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", backendErr(LocalBackendName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", backendErrf(LocalBackendName, "model service error: %s - %s", resp.Status, string(respBody))
	}

	var out struct {
		// The generator echoes the prompt followed by the completion.
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backendErrf(LocalBackendName, "bad generation response: %v", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", backendErrf(LocalBackendName, "empty reply")
	}

	return out.Text, nil
}
