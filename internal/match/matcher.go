// Package match maps noisy transcript fragments to catalog candidates using
// the phonetic index. Matching is pure and allocation-light; it runs inside
// the dialog turn and must never block.
package match

import (
	"sort"
	"unicode/utf8"

	"avos/internal/domain"
	"avos/internal/phonetic"
)

// DefaultThreshold is the minimum similarity a candidate must reach.
// Below it the matcher returns nothing and the caller re-prompts; a
// low-confidence guess is worse than no guess on a phone line.
const DefaultThreshold = 0.6

// exactMatchMaxRunes bounds the strings compared by equality instead of edit
// distance; a one-edit difference on a 3-rune key says nothing useful.
const exactMatchMaxRunes = 3

// Candidate is one ranked match result.
type Candidate struct {
	Item  domain.MenuItem
	Score float64
}

// categoryPriority orders tie-broken categories; lower wins. Categories not
// listed share the lowest priority.
var categoryPriority = map[string]int{
	"entree":    0,
	"main":      0,
	"appetizer": 1,
	"side":      2,
	"soup":      3,
	"dessert":   4,
	"beverage":  5,
	"drink":     5,
}

// Match returns the index entries whose phonetic key for lang is similar to
// the fragment, best first. Ties break by category priority, then by lowest
// price. Unavailable items never match. An empty result means the caller
// must treat the item as not found and ask the customer to repeat.
func Match(fragment string, lang domain.Language, entries []domain.IndexEntry, threshold float64) []Candidate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	key := phonetic.KeyFor(phonetic.Index(fragment), lang)
	if key == "" {
		return nil
	}

	var out []Candidate
	for _, e := range entries {
		if !e.Item.Available {
			continue
		}
		score := Similarity(key, phonetic.KeyFor(e.Keys, lang))
		if score >= threshold {
			out = append(out, Candidate{Item: e.Item, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		pi, pj := priorityFor(out[i].Item.Category), priorityFor(out[j].Item.Category)
		if pi != pj {
			return pi < pj
		}
		return out[i].Item.PriceCents < out[j].Item.PriceCents
	})
	return out
}

// Best returns the top candidate, if any cleared the threshold.
func Best(fragment string, lang domain.Language, entries []domain.IndexEntry, threshold float64) (Candidate, bool) {
	ranked := Match(fragment, lang, entries, threshold)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}

func priorityFor(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return len(categoryPriority)
}

// Similarity scores two phonetic keys in [0,1]. Short keys compare by
// equality; longer keys use a length-normalized Levenshtein distance.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la <= exactMatchMaxRunes || lb <= exactMatchMaxRunes {
		return 0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein([]rune(a), []rune(b))
	return 1 - float64(d)/float64(longest)
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
