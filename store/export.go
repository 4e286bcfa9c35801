package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agroshield/agroi18n"
)

// ExportFormat is the JSON structure for store export/import. Snapshots are
// used to seed a device's store before it goes into the field, so it can
// serve translations and descriptions without ever having been online.
type ExportFormat struct {
	Version      string                     `json:"version"`
	ExportedAt   string                     `json:"exported_at"`
	Bundles      map[string]agroi18n.Bundle `json:"bundles"`
	Descriptions []ExportDescription        `json:"descriptions"`
	Metadata     map[string]string          `json:"metadata,omitempty"`
}

// ExportDescription is a single exported disease description.
type ExportDescription struct {
	Language    string                      `json:"language"`
	DiseaseID   string                      `json:"disease_id"`
	Description agroi18n.DiseaseDescription `json:"description"`
}

// snapshotter is implemented by stores that can enumerate their contents.
type snapshotter interface {
	snapshot() (map[string]agroi18n.Bundle, map[string]agroi18n.DiseaseDescription, error)
}

// Export writes the store contents to w in JSON format.
func Export(w io.Writer, s Store, metadata map[string]string) error {
	snap, ok := s.(snapshotter)
	if !ok {
		return fmt.Errorf("store type %T does not support export", s)
	}

	bundles, descs, err := snap.snapshot()
	if err != nil {
		return fmt.Errorf("reading store contents: %w", err)
	}

	export := ExportFormat{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Bundles:    bundles,
		Metadata:   metadata,
	}

	for key, d := range descs {
		lang, id, ok := splitDescriptionKey(key)
		if !ok {
			continue
		}
		export.Descriptions = append(export.Descriptions, ExportDescription{
			Language:    lang,
			DiseaseID:   id,
			Description: d,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportToFile exports the store to a file.
// The path is provided by the caller and is intentionally user-controlled.
func ExportToFile(path string, s Store, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return Export(f, s, metadata)
}

// Import reads an exported snapshot and writes every entry into the store.
// Existing entries with the same keys are overwritten.
func Import(r io.Reader, s Store) error {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	for lang, b := range export.Bundles {
		if err := s.PutBundle(lang, b); err != nil {
			return fmt.Errorf("importing bundle %q: %w", lang, err)
		}
	}
	for _, d := range export.Descriptions {
		if err := s.PutDescription(d.Language, d.DiseaseID, d.Description); err != nil {
			return fmt.Errorf("importing description %q/%q: %w", d.Language, d.DiseaseID, err)
		}
	}
	return nil
}

// ImportFromFile imports a snapshot file into the store.
func ImportFromFile(path string, s Store) error {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return Import(f, s)
}

// splitDescriptionKey splits a lang:diseaseID composite key. Identifiers may
// themselves contain ':', so only the first separator counts.
func splitDescriptionKey(key string) (lang, diseaseID string, ok bool) {
	i := strings.Index(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
