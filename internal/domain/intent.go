package domain

// IntentType is the closed set of intents the dialog engine understands.
// Anything a recognizer cannot place in this set must come back as
// IntentUnclear, never as an error.
type IntentType string

const (
	IntentAddItem      IntentType = "add-item"
	IntentRemoveItem   IntentType = "remove-item"
	IntentConfirmOrder IntentType = "confirm-order"
	IntentDecline      IntentType = "decline"
	IntentRepeat       IntentType = "repeat"
	IntentRequestHuman IntentType = "request-human"
	IntentEndCall      IntentType = "end-call"
	IntentUnclear      IntentType = "unclear"
)

// Intent is the structured result of recognizing one customer utterance.
type Intent struct {
	Type       IntentType `json:"type"`
	RawText    string     `json:"rawText"`
	Confidence float64    `json:"confidence"`
	// ItemText is the fragment naming a menu item, set for add/remove intents.
	ItemText string `json:"itemText,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// AIEngine identifies a concrete intent recognizer backend. Restaurants pick
// one in their config; the factory in internal/intent maps it to an
// implementation.
type AIEngine string

const (
	EngineOpenAI  AIEngine = "openai"
	EngineKeyword AIEngine = "keyword"
)
