package chat

import (
	"context"
	"log"
	"nutriscan/domain"
	"nutriscan/entities"
	"nutriscan/pkg/inference"
	"nutriscan/pkg/scan"
	"strings"

	"github.com/google/uuid"
)

// contextScanLimit caps how many recent verdicts ground a chat reply.
const contextScanLimit = 10

type (
	ChatService interface {
		Chat(ctx context.Context, req domain.ChatRequest, userID string) (domain.ChatResponse, error)
	}

	chatService struct {
		scanRepository scan.ScanRepository
		orchestrator   *inference.Orchestrator
	}
)

func NewChatService(scanRepository scan.ScanRepository, orchestrator *inference.Orchestrator) ChatService {
	return &chatService{
		scanRepository: scanRepository,
		orchestrator:   orchestrator,
	}
}

// BuildSystemContext turns recent scan verdicts into the grounding sentence
// handed to whichever chat backend ends up answering. It has no knowledge of
// which backend that will be.
func BuildSystemContext(scans []*entities.Scan) string {
	if len(scans) == 0 {
		return "You are a friendly nutrition assistant. The user has no previous scans yet, so answer from general nutrition knowledge."
	}

	verdicts := make([]string, 0, len(scans))
	for _, s := range scans {
		verdicts = append(verdicts, s.QuickVerdict)
	}

	return "You are a friendly nutrition assistant. The user's most recent scans, newest first: " +
		strings.Join(verdicts, "; ") + ". Use this history when it is relevant to the question."
}

func (s *chatService) Chat(ctx context.Context, req domain.ChatRequest, userID string) (domain.ChatResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return domain.ChatResponse{}, domain.ErrParseUUID
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.ChatResponse{}, domain.ErrEmptyMessage
	}

	scans, err := s.scanRepository.List(ctx, userID, contextScanLimit)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	systemContext := BuildSystemContext(scans)

	raw, backend, err := s.orchestrator.GenerateReply(ctx, systemContext, message)
	if err != nil {
		log.Printf("chat failed: %v", err)
		return domain.ChatResponse{}, domain.ErrChatFailed
	}

	reply, err := inference.NormalizeReply(backend, systemContext, message, raw)
	if err != nil {
		return domain.ChatResponse{}, domain.ErrChatFailed
	}

	log.Printf("chat reply generated via %s backend", backend)
	return domain.ChatResponse{Reply: reply}, nil
}
