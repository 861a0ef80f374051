package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avos/internal/domain"
	"avos/internal/phonetic"
)

func entry(id, name, category string, priceCents int64, available bool) domain.IndexEntry {
	return domain.IndexEntry{
		Item: domain.MenuItem{
			ID:         id,
			Name:       name,
			Category:   category,
			PriceCents: priceCents,
			Available:  available,
		},
		Keys: phonetic.Index(name),
	}
}

func testEntries() []domain.IndexEntry {
	return []domain.IndexEntry{
		entry("1", "Kung Pao Chicken", "entree", 1200, true),
		entry("2", "Beef Chow Mein", "entree", 1350, true),
		entry("3", "Spring Rolls", "appetizer", 550, true),
		entry("4", "Hot and Sour Soup", "soup", 450, true),
		entry("5", "Sesame Chicken", "entree", 1250, true),
	}
}

func TestMatch_ASRMisspelling(t *testing.T) {
	// "kung pow" is the canonical ASR butchering of "kung pao".
	got, ok := Best("kung pow chicken", domain.LanguageEnglish, testEntries(), DefaultThreshold)
	require.True(t, ok)
	require.Equal(t, "1", got.Item.ID)
	require.GreaterOrEqual(t, got.Score, DefaultThreshold)
}

func TestMatch_ExactName(t *testing.T) {
	got, ok := Best("spring rolls", domain.LanguageEnglish, testEntries(), DefaultThreshold)
	require.True(t, ok)
	require.Equal(t, "3", got.Item.ID)
	require.Equal(t, 1.0, got.Score)
}

func TestMatch_BelowThresholdReturnsEmpty(t *testing.T) {
	// Nothing on the menu sounds like this; the matcher must return nothing
	// rather than the least-bad guess.
	got := Match("large pepperoni pizza", domain.LanguageEnglish, testEntries(), DefaultThreshold)
	require.Empty(t, got)
}

func TestMatch_UnavailableItemNeverReturned(t *testing.T) {
	entries := []domain.IndexEntry{
		entry("1", "Kung Pao Chicken", "entree", 1200, false),
	}
	got := Match("kung pao chicken", domain.LanguageEnglish, entries, DefaultThreshold)
	require.Empty(t, got)
}

func TestMatch_TieBreaksByCategoryThenPrice(t *testing.T) {
	entries := []domain.IndexEntry{
		entry("dessert", "Mango Pudding", "dessert", 500, true),
		entry("cheap", "Mango Pudding", "appetizer", 400, true),
		entry("pricey", "Mango Pudding", "appetizer", 600, true),
	}
	got := Match("mango pudding", domain.LanguageEnglish, entries, DefaultThreshold)
	require.Len(t, got, 3)
	// Same score for all three: appetizer beats dessert, cheapest appetizer wins.
	require.Equal(t, "cheap", got[0].Item.ID)
	require.Equal(t, "pricey", got[1].Item.ID)
	require.Equal(t, "dessert", got[2].Item.ID)
}

func TestMatch_MandarinKey(t *testing.T) {
	entries := testEntries()
	got, ok := Best("宫保鸡丁", domain.LanguageMandarin, entries, DefaultThreshold)
	require.True(t, ok)
	require.Equal(t, "1", got.Item.ID)
}

func TestSimilarity_ShortStringsCompareExactly(t *testing.T) {
	require.Equal(t, 1.0, Similarity("tea", "tea"))
	// One edit on a three-rune string is not a near-match.
	require.Equal(t, 0.0, Similarity("tea", "sea"))
}

func TestSimilarity_Bounds(t *testing.T) {
	tests := []struct{ a, b string }{
		{"kung pao chicken", "kung pow chicken"},
		{"beef chow mein", "beef chow fun"},
		{"completely", "different"},
	}
	for _, tc := range tests {
		s := Similarity(tc.a, tc.b)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
}
