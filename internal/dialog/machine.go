// Package dialog implements the turn-based state machine that drives a call
// from greeting to payment. Transitions are pure: no I/O, no blocking, no
// panics on malformed input. Anything the machine cannot place lands in the
// unclear branch, and repeated failure is contained by the error limit.
package dialog

import (
	"strings"

	"avos/internal/domain"
	"avos/internal/match"
	"avos/internal/order"
)

// Action is a side effect the session manager must carry out after a turn.
type Action string

const (
	ActionNone            Action = ""
	ActionInitiatePayment Action = "initiate_payment"
	ActionTransferHuman   Action = "transfer_human"
	ActionEndCall         Action = "end_call"
)

// usableConfidence is the floor below which a recognized intent is treated
// as unclear regardless of its type.
const usableConfidence = 0.3

// Result is the outcome of one turn.
type Result struct {
	Response string
	Action   Action
}

// Machine evaluates transitions for one restaurant's configuration against
// an index snapshot captured at call start. It holds no per-call state; the
// DialogContext passed to each method is the unit of work.
type Machine struct {
	cfg     domain.RestaurantConfig
	entries []domain.IndexEntry
}

// New returns a machine for cfg over the given index snapshot.
func New(cfg domain.RestaurantConfig, entries []domain.IndexEntry) *Machine {
	return &Machine{cfg: cfg.Normalize(), entries: entries}
}

// Greeting produces the opening utterance and moves the context out of
// GREETING. Restaurants offering a single language skip LANGUAGE_SELECT.
func (m *Machine) Greeting(dc *domain.DialogContext) string {
	if len(m.cfg.Languages) == 1 {
		dc.Language = m.cfg.Languages[0]
		dc.State = domain.StateMenuBrowsing
		return phrase(dc.Language, phraseGreeting, m.cfg.Name)
	}
	dc.Language = m.cfg.Languages[0]
	dc.State = domain.StateLanguageSelect
	return phrase(dc.Language, phraseLanguageSelect, m.cfg.Name)
}

// Turn applies one recognized intent to the context and returns the spoken
// response plus any side effect for the session manager. Transcript entries
// are appended by the caller, which owns the context; Turn mutates state,
// cart, and counters only.
func (m *Machine) Turn(dc *domain.DialogContext, intent domain.Intent) Result {
	if dc.State.Terminal() {
		return Result{Response: phrase(dc.Language, phraseGoodbye), Action: ActionEndCall}
	}

	res := m.step(dc, intent)

	// Error-limit containment: the one rule that always wins.
	if dc.ErrorCount >= dc.MaxErrors && dc.State != domain.StateHumanTransfer && !dc.State.Terminal() {
		res = m.Escalate(dc)
	}
	return res
}

// Escalate forces the failure-containment transition: HUMAN_TRANSFER when a
// transfer number is configured, ENDED otherwise. Also used by the session
// manager on call-duration expiry.
func (m *Machine) Escalate(dc *domain.DialogContext) Result {
	if m.cfg.TransferPhone != "" {
		dc.State = domain.StateHumanTransfer
		return Result{Response: phrase(dc.Language, phraseHumanTransfer), Action: ActionTransferHuman}
	}
	dc.State = domain.StateEnded
	return Result{Response: phrase(dc.Language, phraseGoodbye), Action: ActionEndCall}
}

func (m *Machine) step(dc *domain.DialogContext, intent domain.Intent) Result {
	// Clarification turns get first crack at the utterance: the caller was
	// just asked to repeat an item name, so even an "unclear" classification
	// may carry a perfectly matchable fragment.
	if dc.State == domain.StateItemClarification {
		if r, handled := m.clarify(dc, intent); handled {
			return r
		}
	}

	switch {
	case intent.Type == domain.IntentEndCall:
		dc.State = domain.StateEnded
		return Result{Response: phrase(dc.Language, phraseGoodbye), Action: ActionEndCall}
	case intent.Type == domain.IntentRequestHuman:
		return m.Escalate(dc)
	case intent.Type == domain.IntentUnclear || intent.Confidence < usableConfidence:
		return m.unclear(dc)
	case intent.Type == domain.IntentRepeat:
		if last, ok := dc.LastPrompt(); ok {
			return Result{Response: last}
		}
		return Result{Response: phrase(dc.Language, phraseMenuPrompt)}
	}

	switch dc.State {
	case domain.StateGreeting, domain.StateMenuBrowsing:
		return m.browse(dc, intent)
	case domain.StateLanguageSelect:
		return m.selectLanguage(dc, intent)
	case domain.StateOrderReview:
		return m.review(dc, intent)
	case domain.StateItemClarification:
		// Non-item intent mid-clarification: fall back to browsing rules.
		dc.State = domain.StateMenuBrowsing
		return m.browse(dc, intent)
	case domain.StateUpsell:
		return m.upsell(dc, intent)
	case domain.StateOrderConfirmation:
		return m.confirmation(dc, intent)
	case domain.StatePayment:
		return m.payment(dc, intent)
	case domain.StateHumanTransfer:
		return Result{Response: phrase(dc.Language, phraseHumanTransfer), Action: ActionTransferHuman}
	default:
		// Unknown state is an internal inconsistency, not a crash.
		return m.unclear(dc)
	}
}

// unclear re-prompts with the last question and counts the failure.
func (m *Machine) unclear(dc *domain.DialogContext) Result {
	dc.ErrorCount++
	if last, ok := dc.LastPrompt(); ok {
		return Result{Response: phrase(dc.Language, phraseDidNotCatch, last)}
	}
	return Result{Response: phrase(dc.Language, phraseDidNotCatch, phrase(dc.Language, phraseMenuPrompt))}
}

func (m *Machine) selectLanguage(dc *domain.DialogContext, intent domain.Intent) Result {
	if lang, ok := detectLanguage(intent.RawText, m.cfg.Languages); ok {
		dc.Language = lang
		dc.State = domain.StateMenuBrowsing
		return Result{Response: phrase(dc.Language, phraseMenuPrompt)}
	}
	return m.unclear(dc)
}

func (m *Machine) browse(dc *domain.DialogContext, intent domain.Intent) Result {
	switch intent.Type {
	case domain.IntentAddItem:
		return m.addItem(dc, itemText(intent), intent.Quantity)
	case domain.IntentRemoveItem:
		return m.removeItem(dc, itemText(intent))
	case domain.IntentConfirmOrder:
		if dc.Cart.Len() == 0 {
			return Result{Response: phrase(dc.Language, phraseEmptyCart)}
		}
		dc.State = domain.StateOrderReview
		return Result{Response: phrase(dc.Language, phraseOrderReview, readBack(dc.Language, dc.Cart.Items()), dollars(dc.SubtotalCents))}
	case domain.IntentDecline:
		return Result{Response: phrase(dc.Language, phraseAnythingElse)}
	default:
		return m.unclear(dc)
	}
}

func (m *Machine) review(dc *domain.DialogContext, intent domain.Intent) Result {
	switch intent.Type {
	case domain.IntentAddItem:
		return m.addItem(dc, itemText(intent), intent.Quantity)
	case domain.IntentRemoveItem:
		return m.removeItem(dc, itemText(intent))
	case domain.IntentConfirmOrder:
		if dc.Cart.Len() == 0 {
			dc.State = domain.StateMenuBrowsing
			return Result{Response: phrase(dc.Language, phraseEmptyCart)}
		}
		dc.OrderConfirmed = true
		if m.cfg.EnableUpselling && !dc.UpsellOffered {
			if item, ok := m.upsellItem(); ok {
				dc.State = domain.StateUpsell
				dc.UpsellOffered = true
				return Result{Response: phrase(dc.Language, phraseUpsellOffer, item.Name, dollars(item.PriceCents))}
			}
		}
		return m.toConfirmation(dc)
	case domain.IntentDecline:
		return Result{Response: phrase(dc.Language, phraseAnythingElse)}
	default:
		return m.unclear(dc)
	}
}

// clarify retries the pending item request with the repeated fragment.
// Returns handled=false for intents that should route normally.
func (m *Machine) clarify(dc *domain.DialogContext, intent domain.Intent) (Result, bool) {
	switch intent.Type {
	case domain.IntentAddItem, domain.IntentRemoveItem, domain.IntentUnclear:
		text := itemText(intent)
		if strings.TrimSpace(text) == "" {
			return Result{}, false
		}
		qty := intent.Quantity
		if qty == 0 {
			qty = dc.PendingQuantity
		}
		if dc.PendingIntent == domain.IntentRemoveItem && intent.Type != domain.IntentAddItem {
			return m.removeItem(dc, text), true
		}
		return m.addItem(dc, text, qty), true
	default:
		return Result{}, false
	}
}

func (m *Machine) addItem(dc *domain.DialogContext, text string, qty int) Result {
	cand, ok := match.Best(text, dc.Language, m.entries, m.cfg.MatchThreshold)
	if !ok {
		return m.itemNotFound(dc, domain.IntentAddItem, qty)
	}
	if qty < 1 {
		qty = 1
	}
	order.AddItem(dc, cand.Item, qty)
	m.clearPending(dc)
	dc.State = domain.StateOrderReview
	return Result{Response: phrase(dc.Language, phraseAdded, qty, cand.Item.Name, dollars(dc.SubtotalCents))}
}

func (m *Machine) removeItem(dc *domain.DialogContext, text string) Result {
	cand, ok := match.Best(text, dc.Language, m.entries, m.cfg.MatchThreshold)
	if !ok {
		return m.itemNotFound(dc, domain.IntentRemoveItem, 0)
	}
	m.clearPending(dc)
	if _, inCart := dc.Cart.Get(cand.Item.ID); !inCart {
		return Result{Response: phrase(dc.Language, phraseNotInCart, cand.Item.Name)}
	}
	order.RemoveItem(dc, cand.Item.ID)
	dc.State = domain.StateOrderReview
	return Result{Response: phrase(dc.Language, phraseRemoved, cand.Item.Name, dollars(dc.SubtotalCents))}
}

// itemNotFound records the failed attempt and asks the caller to repeat.
// The pending fields let the clarification turn inherit the original
// request shape.
func (m *Machine) itemNotFound(dc *domain.DialogContext, pending domain.IntentType, qty int) Result {
	dc.State = domain.StateItemClarification
	dc.PendingIntent = pending
	dc.PendingQuantity = qty
	dc.ErrorCount++
	return Result{Response: phrase(dc.Language, phraseClarify)}
}

// upsell applies the caller's answer to the one-time offer and moves on to
// the read-back either way; the offer is never repeated.
func (m *Machine) upsell(dc *domain.DialogContext, intent domain.Intent) Result {
	accepted := intent.Type == domain.IntentAddItem || intent.Type == domain.IntentConfirmOrder
	if accepted {
		if item, ok := m.upsellItem(); ok {
			order.AddItem(dc, item, 1)
		}
	}
	return m.toConfirmation(dc)
}

func (m *Machine) confirmation(dc *domain.DialogContext, intent domain.Intent) Result {
	switch intent.Type {
	case domain.IntentConfirmOrder:
		dc.State = domain.StatePayment
		dc.PaymentInitiated = true
		return Result{Action: ActionInitiatePayment}
	case domain.IntentDecline:
		dc.State = domain.StateOrderReview
		return Result{Response: phrase(dc.Language, phraseOrderReview, readBack(dc.Language, dc.Cart.Items()), dollars(dc.SubtotalCents))}
	case domain.IntentAddItem:
		return m.addItem(dc, itemText(intent), intent.Quantity)
	case domain.IntentRemoveItem:
		return m.removeItem(dc, itemText(intent))
	default:
		return m.unclear(dc)
	}
}

// payment repeats the link notification; the call usually ends from the
// transport side once the caller hangs up.
func (m *Machine) payment(dc *domain.DialogContext, _ domain.Intent) Result {
	if last, ok := dc.LastPrompt(); ok {
		return Result{Response: last}
	}
	return Result{Response: phrase(dc.Language, phraseGoodbye)}
}

// PaymentResponse renders the utterance spoken after a successful payment
// handoff; totalCents comes from the handoff quote, never from the engine.
func PaymentResponse(lang domain.Language, totalCents int64) string {
	return phrase(lang, phrasePayment, dollars(totalCents))
}

// PaymentFailure renders the degraded response when the handoff errors; the
// call continues in PAYMENT so a retry can still succeed.
func PaymentFailure(lang domain.Language) string {
	return phrase(lang, phraseTechnical)
}

// Goodbye renders the closing utterance for a forced call end.
func Goodbye(lang domain.Language) string {
	return phrase(lang, phraseGoodbye)
}

// ConfigFailure renders the terminal greeting for a call that cannot start,
// e.g. an empty catalog.
func ConfigFailure(lang domain.Language) string {
	return phrase(lang, phraseTechnical)
}

// toConfirmation moves to the read-back state.
func (m *Machine) toConfirmation(dc *domain.DialogContext) Result {
	dc.State = domain.StateOrderConfirmation
	return Result{Response: phrase(dc.Language, phraseConfirmOrder, readBack(dc.Language, dc.Cart.Items()), dollars(dc.SubtotalCents))}
}

func (m *Machine) upsellItem() (domain.MenuItem, bool) {
	if m.cfg.UpsellItemID == "" {
		return domain.MenuItem{}, false
	}
	for _, e := range m.entries {
		if e.Item.ID == m.cfg.UpsellItemID && e.Item.Available {
			return e.Item, true
		}
	}
	return domain.MenuItem{}, false
}

func (m *Machine) clearPending(dc *domain.DialogContext) {
	dc.PendingIntent = ""
	dc.PendingQuantity = 0
}

func itemText(intent domain.Intent) string {
	if strings.TrimSpace(intent.ItemText) != "" {
		return intent.ItemText
	}
	return intent.RawText
}

// detectLanguage scans an utterance for a language choice among those the
// restaurant offers.
func detectLanguage(text string, offered []domain.Language) (domain.Language, bool) {
	lower := strings.ToLower(text)
	var detected domain.Language
	switch {
	case strings.Contains(lower, "english") || strings.Contains(lower, "inglés"):
		detected = domain.LanguageEnglish
	case strings.Contains(lower, "广东") || strings.Contains(lower, "廣東") ||
		strings.Contains(lower, "cantonese") || strings.Contains(lower, "粤") || strings.Contains(lower, "粵"):
		detected = domain.LanguageCantonese
	case strings.Contains(lower, "中文") || strings.Contains(lower, "mandarin") ||
		strings.Contains(lower, "普通话") || strings.Contains(lower, "chinese"):
		detected = domain.LanguageMandarin
	case strings.Contains(lower, "español") || strings.Contains(lower, "espanol") ||
		strings.Contains(lower, "spanish"):
		detected = domain.LanguageSpanish
	default:
		return "", false
	}
	for _, l := range offered {
		if l == detected {
			return detected, true
		}
	}
	return "", false
}
