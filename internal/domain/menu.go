package domain

// MenuItem is one catalog entry. Catalog data is immutable for the duration
// of a call; availability toggles only take effect on the next index build.
type MenuItem struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category" yaml:"category"`
	PriceCents int64  `json:"priceCents" yaml:"priceCents"`
	Available  bool   `json:"available" yaml:"available"`
}

// PhoneticKeys holds the language-specific phonetic representations of a
// menu item name. Spanish transcripts are matched against the English key,
// so no separate key is carried for it.
type PhoneticKeys struct {
	English  string `json:"english"`
	Pinyin   string `json:"pinyin"`
	Jyutping string `json:"jyutping"`
}

// IndexEntry pairs a menu item with its derived phonetic keys. Entries are
// read-only once built; a rebuild produces a fresh slice.
type IndexEntry struct {
	Item MenuItem     `json:"item"`
	Keys PhoneticKeys `json:"keys"`
}
