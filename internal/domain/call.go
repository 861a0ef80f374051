package domain

import "time"

// Language is a supported conversation language.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageMandarin  Language = "zh"
	LanguageCantonese Language = "yue"
	LanguageSpanish   Language = "es"
)

// CallState is one node of the dialog state machine.
type CallState string

const (
	StateGreeting          CallState = "GREETING"
	StateLanguageSelect    CallState = "LANGUAGE_SELECT"
	StateMenuBrowsing      CallState = "MENU_BROWSING"
	StateItemClarification CallState = "ITEM_CLARIFICATION"
	StateOrderReview       CallState = "ORDER_REVIEW"
	StateUpsell            CallState = "UPSELL"
	StateOrderConfirmation CallState = "ORDER_CONFIRMATION"
	StatePayment           CallState = "PAYMENT"
	StateHumanTransfer     CallState = "HUMAN_TRANSFER"
	StateEnded             CallState = "ENDED"
)

// Terminal reports whether no further turns are processed in this state.
func (s CallState) Terminal() bool {
	return s == StateEnded
}

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAI       Role = "ai"
)

// TranscriptEntry is one utterance in the conversation log. Entries are
// append-only; nothing edits or removes them after the fact.
type TranscriptEntry struct {
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	Language   Language  `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence,omitempty"`
}

// DialogContext is the full mutable state of one in-progress call. It is
// created at call_initiated, owned exclusively by the session manager, and
// discarded after the closed record is persisted. The transcript log and the
// cart are separate substructures with separate invariants: the log only
// grows, the cart mutates through the order assembler.
type DialogContext struct {
	CallID           string
	RestaurantID     string
	State            CallState
	Language         Language
	CustomerPhone    string
	SubtotalCents    int64
	ErrorCount       int
	MaxErrors        int
	UpsellOffered    bool
	OrderConfirmed   bool
	PaymentInitiated bool
	StartedAt        time.Time
	Metadata         map[string]string

	// PendingQuantity carries the requested quantity across a clarification
	// round trip; PendingIntent records whether it was an add or a remove.
	PendingIntent   IntentType
	PendingQuantity int

	Cart    *Cart
	history []TranscriptEntry
}

// NewDialogContext returns a context in the initial state with an empty cart.
func NewDialogContext(callID, restaurantID, customerPhone string, maxErrors int) *DialogContext {
	if maxErrors <= 0 {
		maxErrors = 3
	}
	return &DialogContext{
		CallID:        callID,
		RestaurantID:  restaurantID,
		CustomerPhone: customerPhone,
		State:         StateGreeting,
		MaxErrors:     maxErrors,
		StartedAt:     time.Now().UTC(),
		Metadata:      make(map[string]string),
		Cart:          NewCart(),
	}
}

// Append adds one entry to the conversation log.
func (dc *DialogContext) Append(role Role, text string, confidence float64) {
	dc.history = append(dc.history, TranscriptEntry{
		Role:       role,
		Text:       text,
		Language:   dc.Language,
		Timestamp:  time.Now().UTC(),
		Confidence: confidence,
	})
}

// History returns the conversation log, oldest first. Callers must not
// mutate the returned slice.
func (dc *DialogContext) History() []TranscriptEntry {
	return dc.history
}

// LastPrompt returns the most recent ai utterance, used to re-prompt after
// an unclear turn.
func (dc *DialogContext) LastPrompt() (string, bool) {
	for i := len(dc.history) - 1; i >= 0; i-- {
		if dc.history[i].Role == RoleAI {
			return dc.history[i].Text, true
		}
	}
	return "", false
}
