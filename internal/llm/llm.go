package llm

import (
	"context"

	"yelly/internal/domain"
)

// Completer invokes the chat model with a system instruction, prior
// conversation turns and the current user message.
type Completer interface {
	Complete(ctx context.Context, system string, history []domain.Turn, user string) (string, error)
}
