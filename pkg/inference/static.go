package inference

import (
	"context"
)

const StaticBackendName = "static"

// StaticReplyAdapter is the deterministic last tier of the chat chain. It
// never touches the network and only exists so the assistant can say
// something sensible when both model tiers are down.
type StaticReplyAdapter struct {
	reply string
}

func NewStaticReplyAdapter(reply string) *StaticReplyAdapter {
	return &StaticReplyAdapter{reply: reply}
}

func (a *StaticReplyAdapter) Name() string { return StaticBackendName }

func (a *StaticReplyAdapter) GenerateReply(ctx context.Context, systemContext string, userMessage string) (string, error) {
	if a.reply == "" {
		return "", backendErrf(StaticBackendName, "no fallback reply configured")
	}
	return a.reply, nil
}
