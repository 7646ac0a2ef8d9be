package inference

import (
	"fmt"
	"nutriscan/domain"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxReportRows caps the detailed report for food scans.
const MaxReportRows = 5

var titleCaser = cases.Title(language.English)

func titleCase(label string) string {
	return titleCaser.String(strings.ReplaceAll(label, "_", " "))
}

func percentage(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// NormalizeLabel shapes recognized label text into the canonical verdict.
// Blank text is a valid outcome ("No text detected"), not a failure.
func NormalizeLabel(text string) (string, []domain.DetailedReportRow) {
	report := []domain.DetailedReportRow{
		{Label: "Extracted text", Impact: "See full text in this scan"},
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "No text detected", report
	}

	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = strings.TrimSpace(text[:idx])
	}
	return "Label: " + firstLine, report
}

// NormalizeFood shapes a classification list into the canonical verdict plus
// a report of at most five rows, preserving backend order.
func NormalizeFood(predictions []Prediction) (string, []domain.DetailedReportRow, error) {
	if len(predictions) == 0 {
		return "", nil, domain.ErrUninterpretableResult
	}

	top := predictions[0]
	verdict := fmt.Sprintf("Food: %s (%s)", titleCase(top.Label), percentage(top.Score))

	rows := predictions
	if len(rows) > MaxReportRows {
		rows = rows[:MaxReportRows]
	}

	report := make([]domain.DetailedReportRow, 0, len(rows))
	for _, p := range rows {
		report = append(report, domain.DetailedReportRow{
			Label:  titleCase(p.Label),
			Impact: percentage(p.Score),
		})
	}
	return verdict, report, nil
}

// NormalizeReply extracts the user-facing reply from raw generated text. The
// local generator returns prompt+completion concatenated, so its known
// prompt prefix is stripped before the reply is surfaced.
func NormalizeReply(backend string, systemContext string, userMessage string, raw string) (string, error) {
	if backend == LocalBackendName {
		prompt := BuildChatPrompt(systemContext, userMessage)
		if strings.HasPrefix(raw, prompt) {
			raw = raw[len(prompt):]
		}
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		return "", domain.ErrUninterpretableResult
	}
	return reply, nil
}
