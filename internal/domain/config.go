package domain

import "time"

// RestaurantConfig is the immutable per-restaurant configuration handed to
// the session manager at call start. Passing it explicitly keeps the engine
// free of ambient state and makes calls reproducible in tests.
type RestaurantConfig struct {
	RestaurantID string `yaml:"restaurantId"`
	Name         string `yaml:"name"`

	// Languages lists the languages offered to the caller. With exactly one
	// entry the LANGUAGE_SELECT state is skipped.
	Languages []Language `yaml:"languages"`

	AIEngine        AIEngine      `yaml:"aiEngine"`
	EnableUpselling bool          `yaml:"enableUpselling"`
	UpsellItemID    string        `yaml:"upsellItemId"`
	TransferPhone   string        `yaml:"transferPhone"`
	MaxErrors       int           `yaml:"maxErrors"`
	MaxCallDuration time.Duration `yaml:"maxCallDuration"`
	MatchThreshold  float64       `yaml:"matchThreshold"`
	Jurisdiction    string        `yaml:"jurisdiction"`
}

// Normalize fills unset fields with engine defaults.
func (c RestaurantConfig) Normalize() RestaurantConfig {
	if len(c.Languages) == 0 {
		c.Languages = []Language{LanguageEnglish}
	}
	if c.AIEngine == "" {
		c.AIEngine = EngineKeyword
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = 3
	}
	if c.MaxCallDuration <= 0 {
		c.MaxCallDuration = 10 * time.Minute
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = 0.6
	}
	return c
}
