package intent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"avos/internal/domain"
)

func newDC(t *testing.T) *domain.DialogContext {
	t.Helper()
	dc := domain.NewDialogContext("call-1", "rest-1", "", 3)
	dc.Language = domain.LanguageEnglish
	dc.State = domain.StateMenuBrowsing
	return dc
}

func TestNew_FactorySelection(t *testing.T) {
	r, err := New(domain.EngineKeyword, Deps{})
	require.NoError(t, err)
	require.IsType(t, &Keyword{}, r)

	r, err = New(domain.EngineOpenAI, Deps{Chat: &stubChat{}, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.IsType(t, &OpenAI{}, r)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(domain.AIEngine("watson"), Deps{})
	require.Error(t, err)

	_, err = New(domain.EngineOpenAI, Deps{Model: "gpt-4o-mini"})
	require.Error(t, err)

	_, err = New(domain.EngineOpenAI, Deps{Chat: &stubChat{}})
	require.Error(t, err)
}

func TestKeyword_Classification(t *testing.T) {
	tests := []struct {
		text     string
		want     domain.IntentType
		wantItem string
		wantQty  int
	}{
		{"I want kung pow chicken", domain.IntentAddItem, "kung pow chicken", 0},
		{"can i get 2 spring rolls", domain.IntentAddItem, "spring rolls", 2},
		{"I'd like a couple of egg rolls", domain.IntentAddItem, "egg rolls", 2},
		{"我要宫保鸡丁", domain.IntentAddItem, "宫保鸡丁", 0},
		{"quiero dos tacos", domain.IntentAddItem, "tacos", 2},
		{"remove the spring rolls", domain.IntentRemoveItem, "spring rolls", 0},
		{"that's it", domain.IntentConfirmOrder, "", 0},
		{"yes", domain.IntentConfirmOrder, "", 0},
		{"no thanks", domain.IntentDecline, "", 0},
		{"say that again", domain.IntentRepeat, "", 0},
		{"let me talk to a person", domain.IntentRequestHuman, "", 0},
		{"goodbye", domain.IntentEndCall, "", 0},
		{"mumble mumble static", domain.IntentUnclear, "", 0},
	}
	k := NewKeyword()
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got := k.Recognize(context.Background(), tc.text, newDC(t))
			require.Equal(t, tc.want, got.Type)
			if tc.wantItem != "" {
				require.Equal(t, tc.wantItem, got.ItemText)
			}
			require.Equal(t, tc.wantQty, got.Quantity)
		})
	}
}

func TestKeyword_NoodlesIsNotADecline(t *testing.T) {
	k := NewKeyword()
	got := k.Recognize(context.Background(), "noodles", newDC(t))
	// Bare item names fall through to unclear with the text preserved, so a
	// clarification turn can still match them.
	require.Equal(t, domain.IntentUnclear, got.Type)
	require.Equal(t, "noodles", got.RawText)
}

func TestKeyword_EmptyText(t *testing.T) {
	k := NewKeyword()
	got := k.Recognize(context.Background(), "   ", newDC(t))
	require.Equal(t, domain.IntentUnclear, got.Type)
	require.Equal(t, 0.0, got.Confidence)
}

type stubChat struct {
	reply string
	err   error
	last  []domain.ChatMessage
}

func (s *stubChat) Chat(_ context.Context, _ string, messages []domain.ChatMessage) (string, error) {
	s.last = messages
	return s.reply, s.err
}

func intentJSON(typ, item string, qty int, conf float64) string {
	return fmt.Sprintf(`{"type":%q,"item_text":%q,"quantity":%d,"confidence":%g}`, typ, item, qty, conf)
}

func TestOpenAI_HappyPath(t *testing.T) {
	chat := &stubChat{reply: intentJSON("add-item", "kung pao chicken", 2, 0.95)}
	r := NewOpenAI(chat, "gpt-4o-mini")

	got := r.Recognize(context.Background(), "two kung pao chicken please", newDC(t))
	require.Equal(t, domain.IntentAddItem, got.Type)
	require.Equal(t, "kung pao chicken", got.ItemText)
	require.Equal(t, 2, got.Quantity)
	require.Equal(t, 0.95, got.Confidence)
	require.Equal(t, "two kung pao chicken please", got.RawText)
}

func TestOpenAI_BackendErrorDegradesToUnclear(t *testing.T) {
	chat := &stubChat{err: errors.New("upstream timeout")}
	r := NewOpenAI(chat, "gpt-4o-mini")

	got := r.Recognize(context.Background(), "hello", newDC(t))
	require.Equal(t, domain.IntentUnclear, got.Type)
	require.Equal(t, 0.0, got.Confidence)
	require.Equal(t, "hello", got.RawText)
}

func TestOpenAI_MalformedResponseDegradesToUnclear(t *testing.T) {
	for _, reply := range []string{
		"not json at all",
		`{"type":"add-item"`,
		`{"type":"add-item","item_text":"x","quantity":1,"confidence":0.9}{"extra":true}`,
		`{"type":"buy-stocks","item_text":"","quantity":0,"confidence":0.9}`,
	} {
		chat := &stubChat{reply: reply}
		r := NewOpenAI(chat, "gpt-4o-mini")
		got := r.Recognize(context.Background(), "order food", newDC(t))
		require.Equal(t, domain.IntentUnclear, got.Type, "reply %q", reply)
	}
}

func TestOpenAI_ClampsConfidence(t *testing.T) {
	chat := &stubChat{reply: intentJSON("confirm-order", "", 0, 3.5)}
	r := NewOpenAI(chat, "gpt-4o-mini")
	got := r.Recognize(context.Background(), "yes", newDC(t))
	require.Equal(t, 1.0, got.Confidence)
}

func TestOpenAI_SendsDialogContext(t *testing.T) {
	chat := &stubChat{reply: intentJSON("unclear", "", 0, 0.1)}
	r := NewOpenAI(chat, "gpt-4o-mini")
	dc := newDC(t)
	dc.Append(domain.RoleAI, "What would you like to order?", 0)

	r.Recognize(context.Background(), "hmm", dc)
	require.NotEmpty(t, chat.last)
	require.Equal(t, "system", chat.last[0].Role)
	require.Contains(t, chat.last[0].Content, "MENU_BROWSING")
	require.Equal(t, "assistant", chat.last[1].Role)
	require.Equal(t, "hmm", chat.last[len(chat.last)-1].Content)
}
