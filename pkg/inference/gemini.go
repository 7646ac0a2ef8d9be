package inference

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const GeminiBackendName = "gemini"

// GeminiAdapter talks to the hosted Gemini API. It is the first tier of every
// fallback chain: cheap and fast when reachable, useless without network.
type GeminiAdapter struct {
	apiKey string
	model  string
}

func NewGeminiAdapter(apiKey, model string) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

func (a *GeminiAdapter) Name() string { return GeminiBackendName }

func (a *GeminiAdapter) newModel(ctx context.Context, jsonOutput bool) (*genai.Client, *genai.GenerativeModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return nil, nil, err
	}

	m := client.GenerativeModel(a.model)
	cfg := genai.GenerationConfig{Temperature: ptrFloat32(0)}
	if jsonOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	m.GenerationConfig = cfg
	return client, m, nil
}

func (a *GeminiAdapter) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, m, err := a.newModel(ctx, false)
	if err != nil {
		return "", backendErr(GeminiBackendName, err)
	}
	defer client.Close()

	resp, err := m.GenerateContent(ctx,
		genai.Text("Transcribe all printed text visible in this image, preserving line breaks. Return only the raw text with no commentary. If the image contains no readable text, return an empty response."),
		&genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return "", backendErr(GeminiBackendName, err)
	}
	if len(resp.Candidates) == 0 {
		return "", backendErrf(GeminiBackendName, "no candidates in response")
	}

	// An empty transcription from a well-formed response means the label is
	// blank, which is a valid outcome, not a backend failure.
	return strings.TrimSpace(firstText(resp)), nil
}

func (a *GeminiAdapter) ClassifyImage(ctx context.Context, image []byte, mimeType string, limit int) ([]Prediction, error) {
	client, m, err := a.newModel(ctx, true)
	if err != nil {
		return nil, backendErr(GeminiBackendName, err)
	}
	defer client.Close()

	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(`You are a food image classifier. Identify the dish or food in the image and respond ONLY with a JSON array of candidates ordered by descending confidence, each an object with exactly two fields: "label" (lowercase string) and "score" (number between 0 and 1). No explanations, no markdown.`),
		},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text("Classify the food in this image. Return strictly JSON."),
		&genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return nil, backendErr(GeminiBackendName, err)
	}

	raw := stripCodeFences(strings.TrimSpace(firstText(resp)))
	if raw == "" {
		return nil, backendErrf(GeminiBackendName, "empty classification response")
	}

	var predictions []Prediction
	if err := json.Unmarshal([]byte(raw), &predictions); err != nil {
		return nil, backendErrf(GeminiBackendName, "bad classification JSON: %v", err)
	}
	if len(predictions) == 0 {
		return nil, backendErrf(GeminiBackendName, "classification returned no candidates")
	}

	if limit > 0 && len(predictions) > limit {
		predictions = predictions[:limit]
	}
	return predictions, nil
}

func (a *GeminiAdapter) GenerateReply(ctx context.Context, systemContext string, userMessage string) (string, error) {
	client, m, err := a.newModel(ctx, false)
	if err != nil {
		return "", backendErr(GeminiBackendName, err)
	}
	defer client.Close()

	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemContext)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", backendErr(GeminiBackendName, err)
	}

	reply := strings.TrimSpace(firstText(resp))
	if reply == "" {
		return "", backendErrf(GeminiBackendName, "empty reply")
	}
	return reply, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
