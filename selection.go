package showdown

import (
	"sort"
	"strings"
	"sync"
)

// List names one side of the selection partition.
type List int

const (
	ListAvailable List = iota
	ListSelected
)

func (l List) String() string {
	switch l {
	case ListAvailable:
		return "available"
	case ListSelected:
		return "selected"
	default:
		return "unknown"
	}
}

// SelectionState is a snapshot of the two views of a SelectionStore.
type SelectionState struct {
	Available []Provider
	Selected  []Provider
}

// SelectionStore tracks which catalog providers are chosen for the next comparison.
//
// Membership is a single set keyed by provider id. Each selected id carries the
// sequence number of the add that selected it, so Selected is ordered by when a
// provider was (last) added and Available follows catalog order. A provider
// that is removed and added again therefore moves to the end of Selected.
//
// Unknown ids and repeated operations are ignored, which makes the store safe
// to drive directly from drop-target events.
type SelectionStore struct {
	catalog  *Catalog
	selected map[string]uint64
	seq      uint64

	mu sync.RWMutex
}

// NewSelectionStore creates a store with every catalog provider available.
func NewSelectionStore(catalog *Catalog) *SelectionStore {
	if catalog == nil {
		catalog = MustCatalog()
	}
	return &SelectionStore{
		catalog:  catalog,
		selected: make(map[string]uint64),
	}
}

// AddToSelected moves a provider to the end of the selected list.
// Unknown or already selected ids are ignored.
func (s *SelectionStore) AddToSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Lookup(id); !ok {
		return
	}
	if _, ok := s.selected[id]; ok {
		return
	}
	s.seq++
	s.selected[id] = s.seq
}

// RemoveFromSelected moves a provider back to the available list.
// Ids that are not selected are ignored.
func (s *SelectionStore) RemoveFromSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.selected, id)
}

// Drop applies a drag-and-drop payload onto the target list.
func (s *SelectionStore) Drop(target List, payload string) {
	id := strings.TrimSpace(payload)
	switch target {
	case ListSelected:
		s.AddToSelected(id)
	case ListAvailable:
		s.RemoveFromSelected(id)
	}
}

// Reset makes every provider available again.
func (s *SelectionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make(map[string]uint64)
}

// IsSelected reports whether the provider is currently selected.
func (s *SelectionStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected providers in the order they were added.
func (s *SelectionStore) Selected() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectedLocked()
}

// SelectedIDs returns the ids of the selected providers in order.
func (s *SelectionStore) SelectedIDs() []string {
	return providerIDs(s.Selected())
}

// Available returns the unselected providers in catalog order.
func (s *SelectionStore) Available() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.availableLocked()
}

// State returns both views taken under the same lock.
func (s *SelectionStore) State() SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SelectionState{
		Available: s.availableLocked(),
		Selected:  s.selectedLocked(),
	}
}

func (s *SelectionStore) availableLocked() []Provider {
	out := make([]Provider, 0, s.catalog.Len()-len(s.selected))
	for _, p := range s.catalog.providers {
		if _, ok := s.selected[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *SelectionStore) selectedLocked() []Provider {
	out := make([]Provider, 0, len(s.selected))
	for id := range s.selected {
		p, _ := s.catalog.Lookup(id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.selected[out[i].ID] < s.selected[out[j].ID]
	})
	return out
}
