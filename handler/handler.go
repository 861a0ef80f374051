// Package handler is the Lambda-facing webhook surface. It decodes provider
// events, dispatches them to the session manager, and maps session errors to
// HTTP statuses. No dialog logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"avos/internal/catalog"
	"avos/internal/domain"
	"avos/internal/session"
)

const (
	eventCallInitiated    = "call_initiated"
	eventTranscriptUpdate = "transcript_update"
	eventCallEnded        = "call_ended"
	eventCallFailed       = "call_failed"
)

// SessionService is the session surface the handler consumes.
type SessionService interface {
	StartCall(ctx context.Context, in session.StartInput) (session.StartOutput, error)
	HandleTranscript(ctx context.Context, in session.TranscriptInput) (session.TurnOutput, error)
	EndCall(ctx context.Context, callID, reason string) error
}

// ConfigSource resolves the per-restaurant configuration for incoming calls.
type ConfigSource interface {
	ConfigFor(restaurantID string) (domain.RestaurantConfig, bool)
}

// CatalogSource resolves the current catalog snapshot for a restaurant.
// *catalog.Store satisfies this interface.
type CatalogSource interface {
	Get(restaurantID string) (*catalog.Snapshot, bool)
}

// Response mirrors the proxy-integration response shape.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// webhookRequest is the provider's event envelope. Sequence stays a pointer:
// providers without event numbering omit the field, and that must stay
// distinguishable from an explicit 0.
type webhookRequest struct {
	Event        string `json:"event"`
	CallID       string `json:"callId"`
	RestaurantID string `json:"restaurantId"`
	CallerPhone  string `json:"callerPhone"`
	Text         string `json:"text"`
	Sequence     *int64 `json:"sequence"`
	Reason       string `json:"reason"`
}

type startResponse struct {
	Greeting string `json:"greeting"`
	State    string `json:"state"`
}

type turnResponse struct {
	Response   string `json:"response"`
	State      string `json:"state"`
	Action     string `json:"action,omitempty"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

type endResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler dispatches webhook events to the session manager.
type Handler struct {
	sessions SessionService
	configs  ConfigSource
	catalogs CatalogSource
}

// NewHandler creates a Handler.
func NewHandler(sessions SessionService, configs ConfigSource, catalogs CatalogSource) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("handler: session service must not be nil")
	}
	if configs == nil {
		return nil, errors.New("handler: config source must not be nil")
	}
	if catalogs == nil {
		return nil, errors.New("handler: catalog source must not be nil")
	}
	return &Handler{sessions: sessions, configs: configs, catalogs: catalogs}, nil
}

// Handle processes one webhook delivery.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (Response, error) {
	corrID := correlationID(event.Headers)

	var req webhookRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, corrID, errorResponse{
			Error: string(session.ErrorInvalidInput), Reason: "malformed_body",
		}), nil
	}

	switch req.Event {
	case eventCallInitiated:
		return h.handleStart(ctx, corrID, req), nil
	case eventTranscriptUpdate:
		return h.handleTranscript(ctx, corrID, req), nil
	case eventCallEnded:
		return h.handleEnd(ctx, corrID, req), nil
	case eventCallFailed:
		// A failed call terminates like a hangup; the reason labels the record.
		if req.Reason == "" {
			req.Reason = "call-failed"
		}
		return h.handleEnd(ctx, corrID, req), nil
	default:
		return jsonResponse(http.StatusBadRequest, corrID, errorResponse{
			Error: string(session.ErrorInvalidInput), Reason: "unknown_event",
		}), nil
	}
}

func (h *Handler) handleStart(ctx context.Context, corrID string, req webhookRequest) Response {
	cfg, ok := h.configs.ConfigFor(req.RestaurantID)
	if !ok {
		return jsonResponse(http.StatusNotFound, corrID, errorResponse{
			Error: string(session.ErrorInvalidInput), Reason: "unknown_restaurant",
		})
	}
	// A missing snapshot is handed through as nil: the session speaks the
	// apology and ends the call instead of failing the webhook.
	snap, _ := h.catalogs.Get(req.RestaurantID)

	out, err := h.sessions.StartCall(ctx, session.StartInput{
		CallID:      req.CallID,
		CallerPhone: req.CallerPhone,
		Config:      cfg,
		Snapshot:    snap,
	})
	if err != nil {
		return errorFor(corrID, err)
	}
	return jsonResponse(http.StatusOK, corrID, startResponse{
		Greeting: out.Greeting,
		State:    string(out.State),
	})
}

func (h *Handler) handleTranscript(ctx context.Context, corrID string, req webhookRequest) Response {
	out, err := h.sessions.HandleTranscript(ctx, session.TranscriptInput{
		CallID:   req.CallID,
		Text:     req.Text,
		Sequence: req.Sequence,
	})
	if err != nil {
		return errorFor(corrID, err)
	}
	return jsonResponse(http.StatusOK, corrID, turnResponse{
		Response:   out.Response,
		State:      string(out.State),
		Action:     string(out.Action),
		PaymentURL: out.PaymentURL,
		Duplicate:  out.Duplicate,
	})
}

func (h *Handler) handleEnd(ctx context.Context, corrID string, req webhookRequest) Response {
	if err := h.sessions.EndCall(ctx, req.CallID, req.Reason); err != nil {
		return errorFor(corrID, err)
	}
	return jsonResponse(http.StatusOK, corrID, endResponse{Status: "ended"})
}

// errorFor maps a session error to the webhook response.
func errorFor(corrID string, err error) Response {
	var serr *session.Error
	if !errors.As(err, &serr) {
		return jsonResponse(http.StatusInternalServerError, corrID, errorResponse{
			Error: string(session.ErrorInternal),
		})
	}
	status := http.StatusInternalServerError
	switch serr.Code {
	case session.ErrorInvalidInput:
		status = http.StatusBadRequest
	case session.ErrorCallNotFound:
		status = http.StatusNotFound
	case session.ErrorUpstream:
		status = http.StatusBadGateway
	}
	return jsonResponse(status, corrID, errorResponse{
		Error:  string(serr.Code),
		Reason: serr.Reason,
	})
}

func jsonResponse(status int, corrID string, body any) Response {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return Response{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(raw),
	}
}

// correlationID reuses the caller's id when present, otherwise mints one.
// Header lookup is case-insensitive.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
