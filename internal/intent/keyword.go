package intent

import (
	"context"
	"strconv"
	"strings"

	"avos/internal/domain"
)

// Keyword is a deterministic rule-based recognizer. It backs restaurants
// that opt out of an LLM dependency, the replay harness, and tests. Rules
// cover the four supported languages; anything unmatched comes back unclear
// with the raw text preserved so a clarification turn can still use it.
type Keyword struct{}

// Compile-time interface check.
var _ Recognizer = (*Keyword)(nil)

// NewKeyword returns the rule-based recognizer.
func NewKeyword() *Keyword {
	return &Keyword{}
}

var (
	endCallWords = []string{
		"goodbye", "bye", "hang up", "that is all thank you",
		"再见", "拜拜", "再見", "adios", "adiós", "hasta luego",
	}
	humanWords = []string{
		"human", "person", "operator", "representative", "an agent", "staff",
		"人工", "转人工", "轉人工", "真人", "persona real", "operador", "empleado",
	}
	repeatWords = []string{
		"repeat", "say that again", "one more time", "pardon",
		"再说一遍", "再講一次", "repita", "repite", "otra vez",
	}
	removeWords = []string{
		"remove", "take off", "take out", "drop the", "without the", "cancel the",
		"去掉", "不要了", "唔要", "除咗", "quita ", "quite ", "quitar",
	}
	confirmWords = []string{
		"confirm", "that's it", "thats it", "that's all", "thats all",
		"that's everything", "place the order", "place it", "checkout",
		"check out", "yes", "yeah", "yep", "correct", "sure", "okay", "ok",
		"确认", "下单", "好的", "落單", "係", "对", "對",
		"sí", "si por favor", "claro", "correcto", "confirmo",
	}
	declineWords = []string{
		"no thanks", "no thank you", "nothing else", "nada más", "nada mas",
		"不要", "不用", "唔使", "no",
	}
	addPrefixes = []string{
		"i want to order", "i want", "i'd like", "i would like", "id like",
		"can i get", "can i have", "could i get", "give me", "let me get",
		"let me have", "add", "我要", "我想要", "来一份", "來一份", "帮我加",
		"quiero", "me gustaría", "me gustaria", "dame", "quisiera",
	}
)

// Recognize classifies text with ordered keyword rules. Earlier rules win:
// "no thanks, remove the soup" is a removal, not a decline.
func (k *Keyword) Recognize(_ context.Context, text string, _ *domain.DialogContext) domain.Intent {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)
	if lower == "" {
		return unclear(raw)
	}

	switch {
	case containsAny(lower, humanWords):
		return domain.Intent{Type: domain.IntentRequestHuman, RawText: raw, Confidence: 0.9}
	case containsAny(lower, endCallWords):
		return domain.Intent{Type: domain.IntentEndCall, RawText: raw, Confidence: 0.9}
	case containsAny(lower, repeatWords):
		return domain.Intent{Type: domain.IntentRepeat, RawText: raw, Confidence: 0.9}
	case containsAny(lower, removeWords):
		return domain.Intent{
			Type:       domain.IntentRemoveItem,
			RawText:    raw,
			ItemText:   stripPrefixes(lower, removeWords),
			Confidence: 0.8,
		}
	}

	if prefix, ok := matchPrefix(lower, addPrefixes); ok {
		item, qty := extractQuantity(strings.TrimSpace(strings.TrimPrefix(lower, prefix)))
		return domain.Intent{
			Type:       domain.IntentAddItem,
			RawText:    raw,
			ItemText:   item,
			Quantity:   qty,
			Confidence: 0.8,
		}
	}

	switch {
	case containsAny(lower, confirmWords):
		return domain.Intent{Type: domain.IntentConfirmOrder, RawText: raw, Confidence: 0.8}
	case containsAny(lower, declineWords):
		return domain.Intent{Type: domain.IntentDecline, RawText: raw, Confidence: 0.8}
	}

	// No rule fired. Low confidence, but keep the text: mid-clarification it
	// is probably the repeated item name.
	return domain.Intent{Type: domain.IntentUnclear, RawText: raw, Confidence: 0.2}
}

// containsAny matches phrases and CJK keywords by substring, single Latin
// words by whole-word match, so "noodles" never trips the "no" rule.
func containsAny(s string, words []string) bool {
	var fields []string
	for _, w := range words {
		if strings.Contains(w, " ") || isCJKPrefix(w) {
			if strings.Contains(s, w) {
				return true
			}
			continue
		}
		if fields == nil {
			fields = strings.Fields(s)
		}
		for _, f := range fields {
			if strings.Trim(f, ".,!?") == w {
				return true
			}
		}
	}
	return false
}

func matchPrefix(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p+" ") || strings.HasPrefix(s, p) && isCJKPrefix(p) {
			return p, true
		}
	}
	return "", false
}

// isCJKPrefix reports whether a prefix needs no trailing space; CJK text is
// not space-delimited.
func isCJKPrefix(p string) bool {
	for _, r := range p {
		if r > 0x2E80 {
			return true
		}
	}
	return false
}

// stripPrefixes drops the first matching keyword and everything before it,
// leaving the item fragment: "please remove the spring rolls" -> "the spring
// rolls" (articles are noise the phonetic normalizer tolerates).
func stripPrefixes(s string, words []string) string {
	for _, w := range words {
		if idx := strings.Index(s, w); idx >= 0 {
			rest := strings.TrimSpace(s[idx+len(w):])
			rest = strings.TrimPrefix(rest, "the ")
			if rest != "" {
				return rest
			}
		}
	}
	return s
}

// numberWords are checked in order; longer phrases come before their
// prefixes ("a couple of" before "a").
var numberWords = []struct {
	word string
	n    int
}{
	{"a couple of", 2}, {"one", 1}, {"an", 1}, {"a", 1},
	{"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
	{"un", 1}, {"una", 1}, {"dos", 2}, {"tres", 3}, {"cuatro", 4}, {"cinco", 5},
	{"一", 1}, {"两", 2}, {"兩", 2}, {"二", 2}, {"三", 3}, {"四", 4}, {"五", 5},
}

// extractQuantity pulls a leading quantity off an item fragment:
// "2 spring rolls" -> ("spring rolls", 2). No quantity returns 0; the
// assembler defaults it to one.
func extractQuantity(fragment string) (string, int) {
	fields := strings.Fields(fragment)
	if len(fields) == 0 {
		return fragment, 0
	}
	if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
		return strings.Join(fields[1:], " "), n
	}
	for _, nw := range numberWords {
		switch {
		case strings.Contains(nw.word, " "):
			if strings.HasPrefix(fragment, nw.word+" ") {
				return strings.TrimSpace(strings.TrimPrefix(fragment, nw.word)), nw.n
			}
		case isCJKPrefix(nw.word):
			if strings.HasPrefix(fragment, nw.word) {
				return strings.TrimSpace(strings.TrimPrefix(fragment, nw.word)), nw.n
			}
		case fields[0] == nw.word:
			return strings.Join(fields[1:], " "), nw.n
		}
	}
	return fragment, 0
}
