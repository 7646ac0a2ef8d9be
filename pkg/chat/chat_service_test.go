package chat

import (
	"context"
	"nutriscan/domain"
	"nutriscan/entities"
	"nutriscan/pkg/inference"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanRepository struct {
	scans   []*entities.Scan
	listErr error
}

func (r *fakeScanRepository) Append(_ context.Context, scan *entities.Scan) error {
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

type fakeGenerator struct {
	name       string
	err        error
	calls      int
	lastCtx    string
	lastMsg    string
	replyOfCtx func(systemContext, userMessage string) string
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) GenerateReply(_ context.Context, systemContext string, userMessage string) (string, error) {
	f.calls++
	f.lastCtx = systemContext
	f.lastMsg = userMessage
	if f.err != nil {
		return "", f.err
	}
	return f.replyOfCtx(systemContext, userMessage), nil
}

func TestBuildSystemContextNoHistory(t *testing.T) {
	got := BuildSystemContext(nil)

	assert.Contains(t, got, "no previous scans")
}

func TestBuildSystemContextJoinsVerdicts(t *testing.T) {
	scans := []*entities.Scan{
		{QuickVerdict: "Food: Pizza (92.0%)"},
		{QuickVerdict: "Label: Calories: 120"},
	}

	got := BuildSystemContext(scans)

	assert.Contains(t, got, "Food: Pizza (92.0%); Label: Calories: 120")
}

func TestChatRejectsEmptyMessageWithoutCallingBackends(t *testing.T) {
	generator := &fakeGenerator{name: "remote"}
	orchestrator := inference.NewOrchestrator(nil, nil, []inference.ReplyGenerator{generator})
	service := NewChatService(&fakeScanRepository{}, orchestrator)

	_, err := service.Chat(context.Background(), domain.ChatRequest{Message: "   "}, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Equal(t, 0, generator.calls)
}

func TestChatGroundsReplyInScanHistory(t *testing.T) {
	repo := &fakeScanRepository{scans: []*entities.Scan{{QuickVerdict: "Food: Pizza (92.0%)"}}}
	generator := &fakeGenerator{
		name: "remote",
		replyOfCtx: func(_, _ string) string {
			return "Pizza again? Maybe add a salad."
		},
	}
	orchestrator := inference.NewOrchestrator(nil, nil, []inference.ReplyGenerator{generator})
	service := NewChatService(repo, orchestrator)

	res, err := service.Chat(context.Background(), domain.ChatRequest{Message: "how am I doing?"}, uuid.New().String())

	require.NoError(t, err)
	assert.Equal(t, "Pizza again? Maybe add a salad.", res.Reply)
	assert.Contains(t, generator.lastCtx, "Food: Pizza (92.0%)")
	assert.Equal(t, "how am I doing?", generator.lastMsg)
}

func TestChatStripsLocalPromptEcho(t *testing.T) {
	generator := &fakeGenerator{
		name: inference.LocalBackendName,
		replyOfCtx: func(systemContext, userMessage string) string {
			return inference.BuildChatPrompt(systemContext, userMessage) + " Drink more water."
		},
	}
	orchestrator := inference.NewOrchestrator(nil, nil, []inference.ReplyGenerator{generator})
	service := NewChatService(&fakeScanRepository{}, orchestrator)

	res, err := service.Chat(context.Background(), domain.ChatRequest{Message: "any tips?"}, uuid.New().String())

	require.NoError(t, err)
	assert.Equal(t, "Drink more water.", res.Reply)
}

func TestChatAllBackendsFail(t *testing.T) {
	generator := &fakeGenerator{name: "remote", err: assert.AnError}
	orchestrator := inference.NewOrchestrator(nil, nil, []inference.ReplyGenerator{generator})
	service := NewChatService(&fakeScanRepository{}, orchestrator)

	_, err := service.Chat(context.Background(), domain.ChatRequest{Message: "hello"}, uuid.New().String())

	assert.ErrorIs(t, err, domain.ErrChatFailed)
}

func TestChatRejectsMalformedUserID(t *testing.T) {
	service := NewChatService(&fakeScanRepository{}, inference.NewOrchestrator(nil, nil, nil))

	_, err := service.Chat(context.Background(), domain.ChatRequest{Message: "hello"}, "nope")

	assert.ErrorIs(t, err, domain.ErrParseUUID)
}
