package agroi18n

// Bundle maps translation keys to translated strings for one language.
type Bundle map[string]string

// Clone returns an independent copy of the bundle. Stores and the loader
// exchange clones so persisted data is never aliased by callers.
func (b Bundle) Clone() Bundle {
	if b == nil {
		return nil
	}
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Treatment holds the two treatment tracks suggested for a disease.
type Treatment struct {
	Chemical string `json:"chemical"`
	Organic  string `json:"organic"`
}

// DiseaseDescription is the localized long-form record for one disease in
// one language. HumanVerified is a trust signal: false means the translation
// has not been reviewed by a qualified agronomist, and the rendering layer
// must show a visible caveat.
type DiseaseDescription struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Treatment     Treatment `json:"treatment"`
	HumanVerified bool      `json:"human_verified"`
}

// LocaleInfo describes one language available on the serving origin.
type LocaleInfo struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// LocaleManifest is the payload of /locales-manifest.json: the set of
// languages for which the origin ships a translation bundle.
type LocaleManifest struct {
	Locales []LocaleInfo `json:"locales"`
}

// Codes returns the language codes listed in the manifest.
func (m LocaleManifest) Codes() []string {
	codes := make([]string, 0, len(m.Locales))
	for _, l := range m.Locales {
		codes = append(codes, l.Code)
	}
	return codes
}
