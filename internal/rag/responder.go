package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"faqbot/pkg/ai"
	"faqbot/pkg/domain"
)

const assistantSystemPrompt = `You are a helpful business assistant AI. You help customers with their questions about the business.

IMPORTANT INSTRUCTIONS:
1. If you have relevant context from business documents or website content, use it to provide accurate, helpful answers
2. If you don't have enough information to answer confidently, say "I don't have enough information about that in our documentation. Would you like me to connect you with a human agent who can provide more detailed assistance?"
3. Be professional, friendly, and concise
4. If the question is about something completely unrelated to business (like personal advice, jokes, etc.), politely redirect: "I'm here to help with questions about our business. Is there something specific about our products or services I can help you with?"
5. Never make up or hallucinate information that isn't in the provided context`

// Fixed replies for the degraded paths. Users always get a usable message,
// never a raw provider error.
const (
	msgProcessingTrouble = "I apologize, but I'm having trouble processing your request right now. Would you like me to connect you with a human agent for assistance?"
	msgAPIConfigIssue    = "It seems there's an issue with the API configuration. Please check your API key and try again, or contact support for assistance."
	msgTechnicalTrouble  = "I apologize, but I'm experiencing technical difficulties right now. Would you like me to connect you with a human agent who can help you immediately?"
	msgHandoffSuffix     = " If you need more specific information, I can connect you with a human agent who can provide detailed assistance."
)

var lowConfidenceIndicators = []string{
	"i don't know",
	"i'm not sure",
	"i don't have information",
	"i cannot find",
	"unclear",
	"uncertain",
}

// Responder turns a user query plus retrieved chunks into an assistant reply.
type Responder struct {
	logger *slog.Logger
}

func NewResponder(logger *slog.Logger) *Responder {
	return &Responder{logger: logger}
}

// BuildContext renders retrieved chunks into the prompt context block.
func BuildContext(chunks []domain.RetrievedChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, "Source: "+chunk.Source+"\nContent: "+chunk.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// Respond generates a grounded reply. It never returns an error: provider
// failures and empty generations collapse into fixed fallback messages, and
// hesitant replies get a human-agent handoff appended.
func (r *Responder) Respond(ctx context.Context, gen ai.TextGenerator, query string, chunks []domain.RetrievedChunk) string {
	systemPrompt := assistantSystemPrompt
	if contextBlock := BuildContext(chunks); strings.TrimSpace(contextBlock) != "" {
		systemPrompt += "\n\nYou have access to the following business context from documents and website content. Use this information to answer the user's question:\n\n" + contextBlock
	}

	text, err := gen.GenerateText(ctx, systemPrompt, query)
	if err != nil {
		r.logger.Error("text generation failed", "error", err)
		var provErr *ai.ProviderError
		if errors.As(err, &provErr) && provErr.Category == ai.CategoryAuth {
			return msgAPIConfigIssue
		}
		if strings.Contains(err.Error(), "API_KEY") {
			return msgAPIConfigIssue
		}
		return msgTechnicalTrouble
	}
	if text == "" {
		return msgProcessingTrouble
	}

	lower := strings.ToLower(text)
	seemsUncertain := false
	for _, indicator := range lowConfidenceIndicators {
		if strings.Contains(lower, indicator) {
			seemsUncertain = true
			break
		}
	}
	if seemsUncertain && !strings.Contains(text, "human agent") {
		return text + msgHandoffSuffix
	}
	return text
}
