// Package replay drives scripted conversations through the same session
// entry points production uses. It exists for conformance checks and for the
// avosctl replay command; nothing in the engine depends on it.
package replay

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"avos/internal/catalog"
	"avos/internal/domain"
	"avos/internal/session"
)

// Script is one scripted call: the restaurant setup plus the customer
// utterances in order.
type Script struct {
	Config     domain.RestaurantConfig `yaml:"config"`
	Catalog    catalog.File            `yaml:"catalog"`
	Utterances []string                `yaml:"utterances"`
}

// Exchange pairs a customer utterance with the engine's reply.
type Exchange struct {
	Utterance string
	Response  string
	State     domain.CallState
}

// Summary reports how a scripted call went.
type Summary struct {
	CallID        string
	Greeting      string
	Exchanges     []Exchange
	FinalState    domain.CallState
	Items         []domain.OrderItem
	SubtotalCents int64
}

// LoadScript reads a replay script from a YAML file.
func LoadScript(path string) (Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("replay: read %s: %w", path, err)
	}
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Script{}, fmt.Errorf("replay: parse %s: %w", path, err)
	}
	if len(s.Utterances) == 0 {
		return Script{}, fmt.Errorf("replay: %s: script has no utterances", path)
	}
	return s, nil
}

// Run plays a script against a Manager and reports the outcome. The call is
// force-ended afterwards if the script did not end it.
func Run(ctx context.Context, mgr *session.Manager, callID string, s Script) (Summary, error) {
	snap := catalog.BuildSnapshot(s.Catalog)

	start, err := mgr.StartCall(ctx, session.StartInput{
		CallID:   callID,
		Config:   s.Config,
		Snapshot: snap,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("replay: start call: %w", err)
	}

	sum := Summary{
		CallID:     callID,
		Greeting:   start.Greeting,
		FinalState: start.State,
	}

	for i, utterance := range s.Utterances {
		if sum.FinalState.Terminal() {
			break
		}
		seq := int64(i + 1)
		out, err := mgr.HandleTranscript(ctx, session.TranscriptInput{
			CallID:   callID,
			Text:     utterance,
			Sequence: &seq,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("replay: turn %d: %w", i+1, err)
		}
		sum.Exchanges = append(sum.Exchanges, Exchange{
			Utterance: utterance,
			Response:  out.Response,
			State:     out.State,
		})
		sum.FinalState = out.State

		// The handle vanishes once the call archives, so the cart is captured
		// while the call is still live.
		if peek, ok := mgr.Peek(callID); ok {
			sum.Items = peek.Items
			sum.SubtotalCents = peek.SubtotalCents
		}
	}

	if !sum.FinalState.Terminal() {
		if err := mgr.EndCall(ctx, callID, "replay-complete"); err != nil {
			return Summary{}, fmt.Errorf("replay: end call: %w", err)
		}
	}
	return sum, nil
}
