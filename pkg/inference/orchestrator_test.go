package inference

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
	predictions []Prediction
	err         error
	calls       int
}

func (f *fakeClassifier) Name() string { return f.name }

func (f *fakeClassifier) ClassifyImage(_ context.Context, _ []byte, _ string, _ int) ([]Prediction, error) {
	f.calls++
	return f.predictions, f.err
}

type fakeGenerator struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) GenerateReply(_ context.Context, _ string, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestRecognizeTextFirstSuccessShortCircuits(t *testing.T) {
	first := &fakeRecognizer{name: "remote", text: "Calories: 120"}
	second := &fakeRecognizer{name: "local", text: "never used"}
	o := NewOrchestrator([]TextRecognizer{first, second}, nil, nil)

	text, backend, err := o.RecognizeText(context.Background(), []byte("img"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "Calories: 120", text)
	assert.Equal(t, "remote", backend)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestRecognizeTextFallsBackInOrder(t *testing.T) {
	first := &fakeRecognizer{name: "remote", err: backendErrf("remote", "connection refused")}
	second := &fakeRecognizer{name: "local", text: "Sugar 5g"}
	o := NewOrchestrator([]TextRecognizer{first, second}, nil, nil)

	text, backend, err := o.RecognizeText(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Sugar 5g", text)
	assert.Equal(t, "local", backend)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestClassifyImageAllBackendsFailAggregates(t *testing.T) {
	first := &fakeClassifier{name: "remote", err: backendErrf("remote", "missing api key")}
	second := &fakeClassifier{name: "local", err: backendErrf("local", "service unavailable")}
	o := NewOrchestrator(nil, []ImageClassifier{first, second}, nil)

	predictions, backend, err := o.ClassifyImage(context.Background(), []byte("img"), "image/png", 5)

	require.ErrorIs(t, err, ErrAllBackendsFailed)
	assert.Nil(t, predictions)
	assert.Empty(t, backend)
	assert.True(t, strings.Contains(err.Error(), "remote"))
	assert.True(t, strings.Contains(err.Error(), "local"))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestGenerateReplyStaticTierCatchesEverything(t *testing.T) {
	first := &fakeGenerator{name: "remote", err: backendErrf("remote", "quota exceeded")}
	second := &fakeGenerator{name: "local", err: backendErrf("local", "not running")}
	static := NewStaticReplyAdapter("The assistant is offline right now.")
	o := NewOrchestrator(nil, nil, []ReplyGenerator{first, second, static})

	reply, backend, err := o.GenerateReply(context.Background(), "ctx", "is sugar bad?")

	require.NoError(t, err)
	assert.Equal(t, "The assistant is offline right now.", reply)
	assert.Equal(t, "static", backend)
}

func TestGenerateReplyNoBackendsConfigured(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil)

	_, _, err := o.GenerateReply(context.Background(), "ctx", "hello")

	require.ErrorIs(t, err, ErrAllBackendsFailed)
}
