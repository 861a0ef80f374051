package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"avos/internal/domain"
)

// OpenAI is the LLM-backed recognizer. It sends the utterance plus dialog
// context to a chat-completions endpoint constrained to a strict JSON
// schema, and degrades every failure to an unclear intent.
type OpenAI struct {
	chat  ChatClient
	model string
}

var _ Recognizer = (*OpenAI)(nil)

// NewOpenAI returns the LLM-backed recognizer.
func NewOpenAI(chat ChatClient, model string) *OpenAI {
	return &OpenAI{chat: chat, model: model}
}

// intentResponse is the JSON contract the model is constrained to.
type intentResponse struct {
	Type       string  `json:"type"`
	ItemText   string  `json:"item_text"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

func (o *OpenAI) Recognize(ctx context.Context, text string, dc *domain.DialogContext) domain.Intent {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return unclear(raw)
	}

	reply, err := o.chat.Chat(ctx, o.model, buildIntentMessages(raw, dc))
	if err != nil {
		return unclear(raw)
	}
	parsed, err := parseIntentResponse(reply)
	if err != nil {
		return unclear(raw)
	}

	typ := domain.IntentType(parsed.Type)
	if !knownIntentType(typ) {
		return unclear(raw)
	}
	conf := parsed.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	qty := parsed.Quantity
	if qty < 0 {
		qty = 0
	}
	return domain.Intent{
		Type:       typ,
		RawText:    raw,
		ItemText:   strings.TrimSpace(parsed.ItemText),
		Quantity:   qty,
		Confidence: conf,
	}
}

func buildIntentMessages(text string, dc *domain.DialogContext) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: "system", Content: intentSystemPrompt(dc)},
	}
	// Recent turns give the model enough context to resolve "yes" and
	// "the second one" without re-sending the whole call.
	history := dc.History()
	const maxContextTurns = 6
	if len(history) > maxContextTurns {
		history = history[len(history)-maxContextTurns:]
	}
	for _, e := range history {
		role := "user"
		if e.Role == domain.RoleAI {
			role = "assistant"
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: e.Text})
	}
	return append(messages, domain.ChatMessage{Role: "user", Content: text})
}

func intentSystemPrompt(dc *domain.DialogContext) string {
	var cart []string
	for _, it := range dc.Cart.Items() {
		cart = append(cart, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	cartLine := "empty"
	if len(cart) > 0 {
		cartLine = strings.Join(cart, ", ")
	}
	return strings.Join([]string{
		"You classify one customer utterance from a restaurant phone order.",
		"Return JSON only with keys type, item_text, quantity, confidence.",
		"type is one of: add-item, remove-item, confirm-order, decline, repeat, request-human, end-call, unclear.",
		"item_text is the menu item fragment for add-item/remove-item, otherwise empty.",
		"quantity is the requested count for add-item, 0 when unstated.",
		"confidence is your certainty in [0,1]. Use unclear with low confidence when unsure; never guess an item.",
		"The utterance may be in English, Mandarin, Cantonese, or Spanish.",
		fmt.Sprintf("Dialog state: %s. Language: %s. Cart: %s.", dc.State, dc.Language, cartLine),
	}, "\n")
}

// parseIntentResponse decodes the model reply strictly: unknown fields,
// trailing data, or multiple JSON values are all malformed.
func parseIntentResponse(raw string) (intentResponse, error) {
	var out intentResponse
	dec := json.NewDecoder(bytes.NewBufferString(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return intentResponse{}, fmt.Errorf("intent: decode response: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return intentResponse{}, errors.New("intent: decode response: multiple JSON values")
		}
		return intentResponse{}, fmt.Errorf("intent: decode response trailing data: %w", err)
	}
	return out, nil
}

func knownIntentType(t domain.IntentType) bool {
	switch t {
	case domain.IntentAddItem, domain.IntentRemoveItem, domain.IntentConfirmOrder,
		domain.IntentDecline, domain.IntentRepeat, domain.IntentRequestHuman,
		domain.IntentEndCall, domain.IntentUnclear:
		return true
	}
	return false
}
