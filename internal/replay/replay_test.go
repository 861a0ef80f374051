package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avos/internal/catalog"
	"avos/internal/domain"
	"avos/internal/intent"
	"avos/internal/session"
)

func testScript() Script {
	return Script{
		Config: domain.RestaurantConfig{
			RestaurantID: "golden-dragon",
			Name:         "Golden Dragon",
			Languages:    []domain.Language{domain.LanguageEnglish},
			AIEngine:     domain.EngineKeyword,
		},
		Catalog: catalog.File{
			RestaurantID: "golden-dragon",
			Items: []domain.MenuItem{
				{ID: "kung-pao", Name: "Kung Pao Chicken", Category: "entree", PriceCents: 1295, Available: true},
				{ID: "spring-rolls", Name: "Spring Rolls", Category: "appetizer", PriceCents: 595, Available: true},
			},
		},
		Utterances: []string{
			"i want 2 kung pao chicken",
			"can i get spring rolls",
			"that's it",
		},
	}
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Deps{
		NewRecognizer: func(domain.AIEngine) (session.Recognizer, error) {
			return intent.NewKeyword(), nil
		},
	})
	require.NoError(t, err)
	return m
}

func TestRun_ScriptedOrder(t *testing.T) {
	mgr := newManager(t)
	sum, err := Run(context.Background(), mgr, "replay-1", testScript())
	require.NoError(t, err)

	require.Contains(t, sum.Greeting, "Golden Dragon")
	require.Len(t, sum.Exchanges, 3)
	require.Equal(t, domain.StateOrderConfirmation, sum.FinalState)
	require.Len(t, sum.Items, 2)
	require.Equal(t, int64(2*1295+595), sum.SubtotalCents)
	require.Equal(t, 0, mgr.ActiveCalls(), "replay must not leak handles")
}

func TestRun_ScriptEndingTheCall(t *testing.T) {
	mgr := newManager(t)
	s := testScript()
	s.Utterances = append(s.Utterances, "goodbye")

	sum, err := Run(context.Background(), mgr, "replay-2", s)
	require.NoError(t, err)
	require.Equal(t, domain.StateEnded, sum.FinalState)
	require.Equal(t, 0, mgr.ActiveCalls())
}

func TestRun_StopsAfterTerminalState(t *testing.T) {
	mgr := newManager(t)
	s := testScript()
	s.Utterances = []string{"goodbye", "wait actually"}

	sum, err := Run(context.Background(), mgr, "replay-3", s)
	require.NoError(t, err)
	require.Len(t, sum.Exchanges, 1)
}

func TestLoadScript_YAMLRoundTrip(t *testing.T) {
	content := `config:
  restaurantId: golden-dragon
  name: Golden Dragon
  languages: [en]
  aiEngine: keyword
catalog:
  restaurantId: golden-dragon
  items:
    - id: kung-pao
      name: Kung Pao Chicken
      category: entree
      priceCents: 1295
      available: true
utterances:
  - i want kung pao chicken
  - that's it
`
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := LoadScript(path)
	require.NoError(t, err)
	require.Equal(t, "golden-dragon", s.Config.RestaurantID)
	require.Equal(t, domain.EngineKeyword, s.Config.AIEngine)
	require.Len(t, s.Utterances, 2)

	sum, err := Run(context.Background(), newManager(t), "replay-4", s)
	require.NoError(t, err)
	require.Len(t, sum.Items, 1)
}

func TestLoadScript_NoUtterances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("config:\n  restaurantId: r\n"), 0o600))
	_, err := LoadScript(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no utterances")
}
