package agroi18n

import "net/url"

// ManifestPath is the origin path of the locale manifest.
const ManifestPath = "/locales-manifest.json"

// DescriptionKey builds the composite store key for a localized disease
// description. Language codes are normalized and cannot contain ':', so the
// separator is unambiguous; the disease identifier is treated as an opaque
// string and stored unescaped.
func DescriptionKey(lang, diseaseID string) string {
	return lang + ":" + diseaseID
}

// BundlePath returns the origin path of a language's translation bundle.
func BundlePath(lang string) string {
	return "/locales/" + url.PathEscape(lang) + "/translation.json"
}

// DescriptionPath returns the origin path of a localized disease
// description. Disease identifiers may contain spaces and punctuation, so
// the identifier segment is percent-encoded.
func DescriptionPath(lang, diseaseID string) string {
	return "/locales/" + url.PathEscape(lang) + "/disease_descriptions/" + url.PathEscape(diseaseID) + ".json"
}
