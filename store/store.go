// Package store provides structured local store implementations for
// translation bundles and disease descriptions.
//
// Every implementation follows the same degradation contract: reads report a
// miss as false and never fail, writes return an error the orchestrators log
// and continue on, and each put is atomic per key. Bundles are keyed by bare
// language code; descriptions by the language:diseaseID composite key.
package store

import "github.com/agroshield/agroi18n"

// Store is the persistence contract shared by all implementations.
type Store interface {
	PutBundle(lang string, b agroi18n.Bundle) error
	GetBundle(lang string) (agroi18n.Bundle, bool)

	PutDescription(lang, diseaseID string, d agroi18n.DiseaseDescription) error
	GetDescription(lang, diseaseID string) (agroi18n.DiseaseDescription, bool)

	SavePreferredLanguage(lang string) error
	PreferredLanguage() (string, bool)
}
