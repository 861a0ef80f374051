package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"avos/internal/domain"
)

const sampleYAML = `restaurantId: golden-dragon
items:
  - id: kung-pao
    name: Kung Pao Chicken
    category: entree
    priceCents: 1295
    available: true
  - id: spring-rolls
    name: Spring Rolls
    category: appetizer
    priceCents: 595
    available: true
  - id: chow-mein
    name: Chow Mein
    category: entree
    priceCents: 1095
    available: false
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_HappyPath(t *testing.T) {
	f, err := Load(writeCatalog(t, sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "golden-dragon", f.RestaurantID)
	require.Len(t, f.Items, 3)
	require.Equal(t, int64(1295), f.Items[0].PriceCents)
	require.False(t, f.Items[2].Available)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no restaurant id", "items:\n  - id: a\n    name: A\n", "restaurantId"},
		{"no items", "restaurantId: r\n", "at least one"},
		{"missing item id", "restaurantId: r\nitems:\n  - name: A\n", "id is required"},
		{"missing name", "restaurantId: r\nitems:\n  - id: a\n", "name is required"},
		{"negative price", "restaurantId: r\nitems:\n  - id: a\n    name: A\n    priceCents: -1\n", "negative"},
		{"duplicate id", "restaurantId: r\nitems:\n  - id: a\n    name: A\n  - id: a\n    name: B\n", "duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tc.content))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuildIndex_IncludesUnavailableItems(t *testing.T) {
	f, err := Load(writeCatalog(t, sampleYAML))
	require.NoError(t, err)

	entries := BuildIndex(f.Items)
	require.Len(t, entries, 3)
	require.Equal(t, "kung pao chicken", entries[0].Keys.English)
	require.Equal(t, "gong bao chicken", entries[0].Keys.Pinyin)
	require.Equal(t, "chow-mein", entries[2].Item.ID)
}

func TestBuildSnapshot(t *testing.T) {
	f, err := Load(writeCatalog(t, sampleYAML))
	require.NoError(t, err)

	snap := BuildSnapshot(f)
	require.Equal(t, "golden-dragon", snap.RestaurantID)
	require.Len(t, snap.Index, 3)
	require.False(t, snap.BuiltAt.IsZero())
}

func TestStore_GetPut(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("golden-dragon")
	require.False(t, ok)

	snap := BuildSnapshot(File{
		RestaurantID: "golden-dragon",
		Items:        []domain.MenuItem{{ID: "a", Name: "A", Available: true}},
	})
	s.Put(snap)

	got, ok := s.Get("golden-dragon")
	require.True(t, ok)
	require.Same(t, snap, got)
}

func TestStore_SwapDoesNotDisturbCapturedSnapshot(t *testing.T) {
	s := NewStore()
	first := BuildSnapshot(File{
		RestaurantID: "r",
		Items:        []domain.MenuItem{{ID: "a", Name: "A", Available: true}},
	})
	s.Put(first)

	captured, ok := s.Get("r")
	require.True(t, ok)

	second := BuildSnapshot(File{
		RestaurantID: "r",
		Items:        []domain.MenuItem{{ID: "b", Name: "B", Available: true}},
	})
	s.Put(second)

	// The call that captured the first snapshot keeps it.
	require.Equal(t, "a", captured.Items[0].ID)
	current, _ := s.Get("r")
	require.Equal(t, "b", current.Items[0].ID)
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := NewStore()
	snap := BuildSnapshot(File{
		RestaurantID: "r",
		Items:        []domain.MenuItem{{ID: "a", Name: "A", Available: true}},
	})
	s.Put(snap)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put(snap)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, ok := s.Get("r")
				require.True(t, ok)
				require.NotNil(t, got)
			}
		}()
	}
	wg.Wait()
}
