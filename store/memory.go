package store

import (
	"sync"

	"github.com/agroshield/agroi18n"
)

// MemoryStore is a thread-safe in-memory store. It backs tests and serves as
// an ephemeral fallback when the on-disk store cannot be opened; nothing in
// it survives the process.
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]agroi18n.Bundle
	descs   map[string]agroi18n.DiseaseDescription
	pref    string
	hasPref bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[string]agroi18n.Bundle),
		descs:   make(map[string]agroi18n.DiseaseDescription),
	}
}

// PutBundle stores a copy of the bundle under lang.
func (s *MemoryStore) PutBundle(lang string, b agroi18n.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[lang] = b.Clone()
	return nil
}

// GetBundle returns a copy of the stored bundle for lang.
func (s *MemoryStore) GetBundle(lang string) (agroi18n.Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[lang]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// PutDescription stores a description under the composite key.
func (s *MemoryStore) PutDescription(lang, diseaseID string, d agroi18n.DiseaseDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descs[agroi18n.DescriptionKey(lang, diseaseID)] = d
	return nil
}

// GetDescription returns the stored description for the composite key.
func (s *MemoryStore) GetDescription(lang, diseaseID string) (agroi18n.DiseaseDescription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descs[agroi18n.DescriptionKey(lang, diseaseID)]
	return d, ok
}

// SavePreferredLanguage records the user's language preference.
func (s *MemoryStore) SavePreferredLanguage(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pref = lang
	s.hasPref = true
	return nil
}

// PreferredLanguage returns the recorded language preference.
func (s *MemoryStore) PreferredLanguage() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pref, s.hasPref
}

// Len returns the number of stored bundles and descriptions.
func (s *MemoryStore) Len() (bundles, descriptions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles), len(s.descs)
}

// Clear removes all stored data.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles = make(map[string]agroi18n.Bundle)
	s.descs = make(map[string]agroi18n.DiseaseDescription)
	s.pref = ""
	s.hasPref = false
}

// snapshot returns copies of both collections for export.
func (s *MemoryStore) snapshot() (map[string]agroi18n.Bundle, map[string]agroi18n.DiseaseDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundles := make(map[string]agroi18n.Bundle, len(s.bundles))
	for lang, b := range s.bundles {
		bundles[lang] = b.Clone()
	}
	descs := make(map[string]agroi18n.DiseaseDescription, len(s.descs))
	for key, d := range s.descs {
		descs[key] = d
	}
	return bundles, descs, nil
}

// Verify MemoryStore implements Store and the loader's store contract.
var _ Store = (*MemoryStore)(nil)
var _ agroi18n.Store = (*MemoryStore)(nil)
