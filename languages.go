package agroi18n

import "strings"

// DefaultLanguage is the embedded fallback language. Its bundle ships inside
// the binary and is never evicted.
const DefaultLanguage = "en"

// LanguageLabels maps the language codes AgroShield ships to their native
// display names, used by language pickers and the warm-up CLI.
var LanguageLabels = map[string]string{
	"en": "English",
	"hi": "हिन्दी",
	"kn": "ಕನ್ನಡ",
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// NormalizeLanguage reduces a locale tag to the short lowercase language
// code used as the store key: "en-US" and "en_US" both become "en".
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(lang string) bool {
	return RTLLanguages[NormalizeLanguage(lang)]
}

// Direction returns the text direction attribute value for a language,
// "rtl" or "ltr".
func Direction(lang string) string {
	if IsRTL(lang) {
		return "rtl"
	}
	return "ltr"
}
