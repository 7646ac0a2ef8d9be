package inference

import (
	"nutriscan/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabelUsesFirstLine(t *testing.T) {
	verdict, report := NormalizeLabel("Calories: 120\nSugar: 5g\nSodium: 200mg")

	assert.Equal(t, "Label: Calories: 120", verdict)
	require.Len(t, report, 1)
	assert.Equal(t, "Extracted text", report[0].Label)
}

func TestNormalizeLabelBlankText(t *testing.T) {
	verdict, report := NormalizeLabel("   \n  ")

	assert.Equal(t, "No text detected", verdict)
	assert.Len(t, report, 1)
}

func TestNormalizeFoodVerdictAndOrder(t *testing.T) {
	predictions := []Prediction{
		{Label: "pizza", Score: 0.81},
		{Label: "flatbread", Score: 0.10},
		{Label: "quiche", Score: 0.05},
		{Label: "lasagna", Score: 0.03},
		{Label: "focaccia", Score: 0.01},
	}

	verdict, report, err := NormalizeFood(predictions)

	require.NoError(t, err)
	assert.Equal(t, "Food: Pizza (81.0%)", verdict)
	require.Len(t, report, 5)
	assert.Equal(t, "Pizza", report[0].Label)
	assert.Equal(t, "81.0%", report[0].Impact)
	assert.Equal(t, "Focaccia", report[4].Label)
}

func TestNormalizeFoodCapsReportRows(t *testing.T) {
	predictions := []Prediction{
		{Label: "a", Score: 0.5}, {Label: "b", Score: 0.2}, {Label: "c", Score: 0.1},
		{Label: "d", Score: 0.1}, {Label: "e", Score: 0.05}, {Label: "f", Score: 0.05},
	}

	_, report, err := NormalizeFood(predictions)

	require.NoError(t, err)
	assert.Len(t, report, MaxReportRows)
}

func TestNormalizeFoodTitleCasesUnderscores(t *testing.T) {
	verdict, _, err := NormalizeFood([]Prediction{{Label: "fried_rice", Score: 0.92}})

	require.NoError(t, err)
	assert.Equal(t, "Food: Fried Rice (92.0%)", verdict)
}

func TestNormalizeFoodEmptyPredictions(t *testing.T) {
	_, _, err := NormalizeFood(nil)

	assert.ErrorIs(t, err, domain.ErrUninterpretableResult)
}

func TestNormalizeReplyStripsLocalPromptEcho(t *testing.T) {
	systemContext := "You are a friendly nutrition assistant."
	message := "is sugar bad?"
	raw := BuildChatPrompt(systemContext, message) + " In moderation, yes."

	reply, err := NormalizeReply(LocalBackendName, systemContext, message, raw)

	require.NoError(t, err)
	assert.Equal(t, "In moderation, yes.", reply)
}

func TestNormalizeReplyPassesRemoteThrough(t *testing.T) {
	reply, err := NormalizeReply(GeminiBackendName, "ctx", "msg", "  Eat more fiber.\n")

	require.NoError(t, err)
	assert.Equal(t, "Eat more fiber.", reply)
}

func TestNormalizeReplyEmptyCompletion(t *testing.T) {
	systemContext := "ctx"
	message := "msg"
	raw := BuildChatPrompt(systemContext, message)

	_, err := NormalizeReply(LocalBackendName, systemContext, message, raw)

	assert.ErrorIs(t, err, domain.ErrUninterpretableResult)
}
