// Package catalog loads restaurant menus and derives the phonetic index the
// matcher searches. A Snapshot is immutable once built; live updates swap a
// whole new snapshot in rather than mutating entries under readers.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-yaml"

	"avos/internal/domain"
	"avos/internal/phonetic"
)

// File is the YAML shape of a catalog file.
type File struct {
	RestaurantID string            `yaml:"restaurantId"`
	Items        []domain.MenuItem `yaml:"items"`
}

// Snapshot is one restaurant's menu plus its phonetic index, frozen at build
// time. Calls capture the snapshot at start and keep it for their lifetime.
type Snapshot struct {
	RestaurantID string
	Items        []domain.MenuItem
	Index        []domain.IndexEntry
	BuiltAt      time.Time
}

// Load reads and validates a catalog YAML file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return File{}, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return f, nil
}

func (f File) validate() error {
	if f.RestaurantID == "" {
		return errors.New("restaurantId is required")
	}
	if len(f.Items) == 0 {
		return errors.New("at least one menu item is required")
	}
	seen := make(map[string]struct{}, len(f.Items))
	for i, it := range f.Items {
		if it.ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if it.Name == "" {
			return fmt.Errorf("item %q: name is required", it.ID)
		}
		if it.PriceCents < 0 {
			return fmt.Errorf("item %q: price must not be negative", it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("item %q: duplicate id", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// BuildIndex derives phonetic keys for every item, available or not.
// Availability is a match-time filter so a sold-out item comes back the
// moment it is re-enabled, without a rebuild.
func BuildIndex(items []domain.MenuItem) []domain.IndexEntry {
	entries := make([]domain.IndexEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, domain.IndexEntry{
			Item: it,
			Keys: phonetic.Index(it.Name),
		})
	}
	return entries
}

// BuildSnapshot builds a frozen snapshot from a loaded catalog file.
func BuildSnapshot(f File) *Snapshot {
	return &Snapshot{
		RestaurantID: f.RestaurantID,
		Items:        f.Items,
		Index:        BuildIndex(f.Items),
		BuiltAt:      time.Now().UTC(),
	}
}

// Store holds the current snapshot per restaurant. Reads are lock-free;
// updates copy the whole map and swap it, so an in-flight call never sees a
// half-replaced catalog.
type Store struct {
	mu        sync.Mutex // serializes writers
	snapshots atomic.Pointer[map[string]*Snapshot]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	empty := make(map[string]*Snapshot)
	s.snapshots.Store(&empty)
	return s
}

// Get returns the current snapshot for a restaurant, or false if none is
// loaded.
func (s *Store) Get(restaurantID string) (*Snapshot, bool) {
	m := *s.snapshots.Load()
	snap, ok := m[restaurantID]
	return snap, ok
}

// Put installs a snapshot for its restaurant, replacing any previous one.
// Concurrent readers keep whatever snapshot they already captured.
func (s *Store) Put(snap *Snapshot) {
	if snap == nil || snap.RestaurantID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := *s.snapshots.Load()
	next := make(map[string]*Snapshot, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[snap.RestaurantID] = snap
	s.snapshots.Store(&next)
}
