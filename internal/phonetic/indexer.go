// Package phonetic derives language-specific phonetic keys from menu item
// names. Keys are what the matcher compares noisy speech-to-text fragments
// against, so derivation must be deterministic: the index can be rebuilt at
// any time and produce byte-identical keys for an unchanged catalog.
package phonetic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"avos/internal/domain"
)

// foldDiacritics strips combining marks so "jalapeño" and "jalapeno" key
// identically.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Index derives the phonetic keys for a menu item name. Pure and
// deterministic; calling it twice on the same name yields identical keys.
func Index(name string) domain.PhoneticKeys {
	normalized := Normalize(name)
	return domain.PhoneticKeys{
		English:  normalized,
		Pinyin:   transliterate(normalized, hanToPinyin, pinyinSyllables),
		Jyutping: transliterate(normalized, hanToJyutping, jyutpingSyllables),
	}
}

// KeyFor selects the phonetic key to compare for a conversation language.
// Spanish is Latin-script and reuses the English pipeline.
func KeyFor(keys domain.PhoneticKeys, lang domain.Language) string {
	switch lang {
	case domain.LanguageMandarin:
		return keys.Pinyin
	case domain.LanguageCantonese:
		return keys.Jyutping
	default:
		return keys.English
	}
}

// Normalize lowercases, folds diacritics, strips punctuation, and collapses
// whitespace. Han characters pass through untouched so the transliteration
// step can see them.
func Normalize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			// Punctuation separates tokens rather than vanishing, so
			// "kung-pao" still splits into two syllables.
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// transliterate maps a normalized name to a canonical syllable sequence.
// Han runes go through the character table; Latin tokens are canonicalized
// against the syllable table; anything unmapped falls back to the raw
// lowercase token.
func transliterate(normalized string, hanTable map[rune]string, syllables map[string]string) string {
	var out []string
	for _, token := range strings.Fields(normalized) {
		if hasHan(token) {
			for _, r := range token {
				if syl, ok := hanTable[r]; ok {
					out = append(out, syl)
				} else {
					out = append(out, string(r))
				}
			}
			continue
		}
		if canonical, ok := syllables[token]; ok {
			out = append(out, canonical)
			continue
		}
		out = append(out, token)
	}
	return strings.Join(out, " ")
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
