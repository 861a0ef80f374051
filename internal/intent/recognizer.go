// Package intent turns raw transcript text into the structured Intent the
// dialog engine consumes. Backends are selected per restaurant via a factory
// keyed on the closed AIEngine enum; the state machine never sees a concrete
// backend, only the Intent shape.
package intent

import (
	"context"
	"errors"
	"fmt"

	"avos/internal/domain"
)

// Recognizer converts one customer utterance into an Intent. Implementations
// must degrade every backend failure (timeout, malformed response,
// cancellation) to an unclear intent with zero confidence; recognition never
// surfaces an error into the dialog engine.
type Recognizer interface {
	Recognize(ctx context.Context, text string, dc *domain.DialogContext) domain.Intent
}

// ChatClient is the LLM surface the OpenAI backend consumes.
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// Deps carries backend dependencies into the factory.
type Deps struct {
	// Chat and Model are required for EngineOpenAI.
	Chat  ChatClient
	Model string
}

// New builds the recognizer for an engine identifier. Unknown engines are a
// configuration error surfaced at call start, not at turn time.
func New(engine domain.AIEngine, deps Deps) (Recognizer, error) {
	switch engine {
	case domain.EngineKeyword:
		return NewKeyword(), nil
	case domain.EngineOpenAI:
		if deps.Chat == nil {
			return nil, errors.New("intent: openai engine requires a chat client")
		}
		if deps.Model == "" {
			return nil, errors.New("intent: openai engine requires a model")
		}
		return NewOpenAI(deps.Chat, deps.Model), nil
	default:
		return nil, fmt.Errorf("intent: unknown engine %q", engine)
	}
}

// unclear is the degraded result shared by all backends.
func unclear(text string) domain.Intent {
	return domain.Intent{Type: domain.IntentUnclear, RawText: text, Confidence: 0}
}
