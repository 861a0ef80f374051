// Package session owns the live calls. One Manager holds every active
// DialogContext in a mutex-guarded registry, serializes the turns of each
// call, and is the only place that performs I/O on a call's behalf: intent
// recognition, the payment handoff, and archival of the closed record.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"avos/internal/catalog"
	"avos/internal/dialog"
	"avos/internal/domain"
	"avos/internal/integrations/payments"
)

// Recognizer converts one customer utterance into an Intent. Failures degrade
// to unclear inside the implementation; Recognize never errors.
type Recognizer interface {
	Recognize(ctx context.Context, text string, dc *domain.DialogContext) domain.Intent
}

// PaymentHandoff prices the finalized cart and issues the payment link. The
// engine never computes tax or currency conversion.
type PaymentHandoff interface {
	Checkout(ctx context.Context, in payments.CheckoutInput) (payments.Checkout, error)
}

// Archiver persists closed calls and processed-event marks.
type Archiver interface {
	ArchiveCall(ctx context.Context, rec domain.CallRecord, turns int) error
	WasProcessed(ctx context.Context, callID string, sequence int64) (bool, error)
	MarkProcessed(ctx context.Context, callID string, sequence int64) error
}

// RecognizerFactory builds the recognizer configured for a restaurant.
type RecognizerFactory func(engine domain.AIEngine) (Recognizer, error)

// handle is the per-call unit the registry tracks. Its mutex serializes
// turns; two transcript events for the same call never interleave.
type handle struct {
	mu sync.Mutex

	cfg        domain.RestaurantConfig
	dc         *domain.DialogContext
	machine    *dialog.Machine
	recognizer Recognizer
	greeting   string
	turns      int

	// outputs caches the result per event sequence so a redelivered event
	// replays the original response instead of running the turn again.
	outputs map[int64]TurnOutput
}

// Manager routes webhook events to live calls.
type Manager struct {
	mu    sync.RWMutex
	calls map[string]*handle

	payments      PaymentHandoff
	archive       Archiver
	newRecognizer RecognizerFactory
	log           *slog.Logger
	now           func() time.Time
}

// Deps carries the Manager's collaborators. Payments and Archive may be nil:
// without payments every handoff degrades to the technical-difficulty line,
// without archive closed calls are simply dropped. Both are nil in replay.
type Deps struct {
	Payments      PaymentHandoff
	Archive       Archiver
	NewRecognizer RecognizerFactory
	Logger        *slog.Logger
}

// NewManager creates a Manager.
func NewManager(deps Deps) (*Manager, error) {
	if deps.NewRecognizer == nil {
		return nil, newError(ErrorInvalidInput, "recognizer_factory_required", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		calls:         make(map[string]*handle),
		payments:      deps.Payments,
		archive:       deps.Archive,
		newRecognizer: deps.NewRecognizer,
		log:           logger,
		now:           time.Now,
	}, nil
}

// StartInput describes a call_initiated event.
type StartInput struct {
	CallID      string
	CallerPhone string
	Config      domain.RestaurantConfig
	Snapshot    *catalog.Snapshot
}

// StartOutput is the opening utterance and resulting state.
type StartOutput struct {
	Greeting string
	State    domain.CallState
}

// TranscriptInput describes a transcript_update event. Sequence is the
// provider's monotonically increasing event number within the call; providers
// that do not number their events leave it nil and get no deduplication.
type TranscriptInput struct {
	CallID   string
	Text     string
	Sequence *int64
}

// TurnOutput is the engine's reply to one transcript event.
type TurnOutput struct {
	Response   string
	State      domain.CallState
	Action     dialog.Action
	PaymentURL string
	Duplicate  bool
}

// StartCall registers a new call and returns its greeting. Redelivery of the
// same call_initiated event returns the original greeting. Fatal
// configuration problems (no catalog) end the call with an apology rather
// than an error: the caller hears something either way.
func (m *Manager) StartCall(ctx context.Context, in StartInput) (StartOutput, error) {
	callID := strings.TrimSpace(in.CallID)
	if callID == "" {
		return StartOutput{}, newError(ErrorInvalidInput, "empty_call_id", nil)
	}

	m.mu.Lock()
	if existing, ok := m.calls[callID]; ok {
		m.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return StartOutput{Greeting: existing.greeting, State: existing.dc.State}, nil
	}
	m.mu.Unlock()

	cfg := in.Config.Normalize()

	if in.Snapshot == nil || len(in.Snapshot.Index) == 0 {
		m.log.Error("call rejected: no catalog snapshot",
			"callId", callID, "restaurantId", cfg.RestaurantID)
		return m.abortCall(ctx, callID, in, cfg, "config-empty-catalog")
	}

	recognizer, err := m.newRecognizer(cfg.AIEngine)
	if err != nil {
		m.log.Error("call rejected: recognizer construction failed",
			"callId", callID, "engine", string(cfg.AIEngine), "error", err)
		return m.abortCall(ctx, callID, in, cfg, "config-bad-engine")
	}

	dc := domain.NewDialogContext(callID, cfg.RestaurantID, in.CallerPhone, cfg.MaxErrors)
	machine := dialog.New(cfg, in.Snapshot.Index)
	greeting := machine.Greeting(dc)
	dc.Append(domain.RoleAI, greeting, 0)

	h := &handle{
		cfg:        cfg,
		dc:         dc,
		machine:    machine,
		recognizer: recognizer,
		greeting:   greeting,
		outputs:    make(map[int64]TurnOutput),
	}

	m.mu.Lock()
	if existing, ok := m.calls[callID]; ok {
		// Lost the registration race to a concurrent redelivery.
		m.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return StartOutput{Greeting: existing.greeting, State: existing.dc.State}, nil
	}
	m.calls[callID] = h
	m.mu.Unlock()

	m.log.Info("call started",
		"callId", callID, "restaurantId", cfg.RestaurantID,
		"engine", string(cfg.AIEngine), "language", string(dc.Language))
	return StartOutput{Greeting: greeting, State: dc.State}, nil
}

// abortCall archives a call that never got past configuration and speaks the
// apology in the restaurant's primary language.
func (m *Manager) abortCall(ctx context.Context, callID string, in StartInput, cfg domain.RestaurantConfig, outcome string) (StartOutput, error) {
	lang := domain.LanguageEnglish
	if len(cfg.Languages) > 0 {
		lang = cfg.Languages[0]
	}
	greeting := dialog.ConfigFailure(lang)

	dc := domain.NewDialogContext(callID, cfg.RestaurantID, in.CallerPhone, cfg.MaxErrors)
	dc.Language = lang
	dc.State = domain.StateEnded
	dc.Append(domain.RoleAI, greeting, 0)
	m.persistClosed(ctx, dc, cfg, 0, outcome)

	return StartOutput{Greeting: greeting, State: domain.StateEnded}, nil
}

// HandleTranscript runs one turn for a live call. Turns for the same call are
// serialized; duplicate sequences replay the original output.
func (m *Manager) HandleTranscript(ctx context.Context, in TranscriptInput) (TurnOutput, error) {
	callID := strings.TrimSpace(in.CallID)
	if callID == "" {
		return TurnOutput{}, newError(ErrorInvalidInput, "empty_call_id", nil)
	}

	h, ok := m.lookup(callID)
	if !ok {
		return TurnOutput{}, newError(ErrorCallNotFound, "unknown_call_id", nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if in.Sequence != nil {
		if out, seen := h.outputs[*in.Sequence]; seen {
			out.Duplicate = true
			return out, nil
		}
		if m.archive != nil {
			done, err := m.archive.WasProcessed(ctx, callID, *in.Sequence)
			if err != nil {
				return TurnOutput{}, newError(ErrorInternal, "idempotency_check_error", err)
			}
			if done {
				return TurnOutput{State: h.dc.State, Duplicate: true}, nil
			}
		}
	}

	dc := h.dc

	// Call-duration bound. An expired call with an order in progress goes to
	// a person; otherwise it just ends.
	if m.now().Sub(dc.StartedAt) > h.cfg.MaxCallDuration {
		var res dialog.Result
		if dc.Cart.Len() > 0 && h.cfg.TransferPhone != "" {
			res = h.machine.Escalate(dc)
		} else {
			dc.State = domain.StateEnded
			res = dialog.Result{Response: dialog.Goodbye(dc.Language), Action: dialog.ActionEndCall}
		}
		m.log.Warn("call exceeded max duration", "callId", callID, "state", string(dc.State))
		return m.finishTurn(ctx, h, in.Sequence, res, 0, in.Text)
	}

	intent := h.recognizer.Recognize(ctx, in.Text, dc)
	if err := ctx.Err(); err != nil {
		return TurnOutput{}, newError(ErrorUpstream, "recognition_canceled", err)
	}

	res := h.machine.Turn(dc, intent)
	return m.finishTurn(ctx, h, in.Sequence, res, intent.Confidence, in.Text)
}

// finishTurn completes the bookkeeping every turn shares: the payment
// handoff when requested, transcript appends, the idempotency mark when the
// event carried a sequence, and archival once the call reaches its terminal
// state.
func (m *Manager) finishTurn(ctx context.Context, h *handle, sequence *int64, res dialog.Result, confidence float64, text string) (TurnOutput, error) {
	dc := h.dc
	out := TurnOutput{State: dc.State, Action: res.Action}

	if res.Action == dialog.ActionInitiatePayment {
		res.Response, out.PaymentURL = m.initiatePayment(ctx, h)
	}

	dc.Append(domain.RoleCustomer, text, confidence)
	if res.Response != "" {
		dc.Append(domain.RoleAI, res.Response, 0)
	}
	out.Response = res.Response
	out.State = dc.State

	h.turns++
	if sequence != nil {
		h.outputs[*sequence] = out
		if m.archive != nil {
			if err := m.archive.MarkProcessed(ctx, dc.CallID, *sequence); err != nil {
				m.log.Error("failed to mark event processed",
					"callId", dc.CallID, "sequence", *sequence, "error", err)
			}
		}
	}

	if dc.State.Terminal() {
		m.persistClosed(ctx, dc, h.cfg, h.turns, "")
		m.remove(dc.CallID)
	}
	return out, nil
}

// initiatePayment runs the handoff and renders the spoken outcome. Failure
// keeps the call in PAYMENT; the caller hears the technical-difficulty line
// and can confirm again.
func (m *Manager) initiatePayment(ctx context.Context, h *handle) (response, paymentURL string) {
	dc := h.dc
	if m.payments == nil {
		m.log.Error("payment handoff unavailable", "callId", dc.CallID)
		return dialog.PaymentFailure(dc.Language), ""
	}
	quote, err := m.payments.Checkout(ctx, payments.CheckoutInput{
		CallID:        dc.CallID,
		RestaurantID:  dc.RestaurantID,
		CustomerPhone: dc.CustomerPhone,
		Jurisdiction:  h.cfg.Jurisdiction,
		Items:         dc.Cart.Items(),
	})
	if err != nil {
		m.log.Error("payment handoff failed", "callId", dc.CallID, "error", err)
		return dialog.PaymentFailure(dc.Language), ""
	}
	dc.Metadata["paymentUrl"] = quote.PaymentURL
	m.log.Info("payment link issued",
		"callId", dc.CallID, "totalCents", quote.TotalCents, "expiresAt", quote.ExpiresAt)
	return dialog.PaymentResponse(dc.Language, quote.TotalCents), quote.PaymentURL
}

// EndCall forces a call to ENDED, archives it, and drops the handle. Unknown
// call ids are a no-op: the provider may report hangups for calls already
// closed.
func (m *Manager) EndCall(ctx context.Context, callID, reason string) error {
	h, ok := m.lookup(callID)
	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	dc := h.dc
	if !dc.State.Terminal() {
		dc.State = domain.StateEnded
	}
	m.persistClosed(ctx, dc, h.cfg, h.turns, reason)
	m.remove(callID)
	m.log.Info("call ended", "callId", callID, "reason", reason, "turns", h.turns)
	return nil
}

// PeekOutput is a read-only view of a live call for diagnostics and replay.
type PeekOutput struct {
	State         domain.CallState
	Language      domain.Language
	Items         []domain.OrderItem
	SubtotalCents int64
	Turns         int
}

// Peek returns a copy of a live call's observable state. It reports false
// once the call has been closed and archived.
func (m *Manager) Peek(callID string) (PeekOutput, bool) {
	h, ok := m.lookup(callID)
	if !ok {
		return PeekOutput{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return PeekOutput{
		State:         h.dc.State,
		Language:      h.dc.Language,
		Items:         h.dc.Cart.Items(),
		SubtotalCents: h.dc.SubtotalCents,
		Turns:         h.turns,
	}, true
}

// ActiveCalls reports the number of live handles.
func (m *Manager) ActiveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

func (m *Manager) lookup(callID string) (*handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.calls[callID]
	return h, ok
}

func (m *Manager) remove(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.calls, callID)
}

// persistClosed archives the closed record. Archival failure is logged, not
// surfaced: the call is over either way and the transcript is in the logs.
func (m *Manager) persistClosed(ctx context.Context, dc *domain.DialogContext, cfg domain.RestaurantConfig, turns int, reason string) {
	if m.archive == nil {
		return
	}
	rec := domain.CallRecord{
		CallID:        dc.CallID,
		RestaurantID:  dc.RestaurantID,
		CustomerPhone: dc.CustomerPhone,
		Language:      dc.Language,
		FinalState:    dc.State,
		Outcome:       callOutcome(dc, reason),
		Items:         dc.Cart.Items(),
		SubtotalCents: dc.SubtotalCents,
		Transcript:    dc.History(),
		StartedAt:     dc.StartedAt,
		EndedAt:       m.now().UTC(),
	}
	if err := m.archive.ArchiveCall(ctx, rec, turns); err != nil {
		m.log.Error("failed to archive call", "callId", dc.CallID, "error", err)
	}
}

// callOutcome labels the closed record. An explicit reason from the
// transport wins; otherwise the label is derived from how far the call got.
func callOutcome(dc *domain.DialogContext, reason string) string {
	if reason != "" {
		return reason
	}
	switch {
	case dc.Metadata["paymentUrl"] != "":
		return "order-placed"
	case dc.State == domain.StateHumanTransfer:
		return "transferred"
	case dc.OrderConfirmed:
		return "confirmed-unpaid"
	default:
		return "abandoned"
	}
}
