package agroi18n

// defaultResources is the embedded default-language bundle: the minimal set
// of strings needed to render the app before any network or store access.
// It is the fallback of last resort and is never evicted.
var defaultResources = Bundle{
	"app_title":             "AgroShield",
	"analyze_image":         "Analyze Image",
	"analyze_another":       "Analyze Another Image",
	"choose_image":          "Choose Image",
	"uploaded_photo":        "Uploaded Photo",
	"treatment_suggestions": "Treatment Suggestions",
	"chemical":              "Chemical/Synthetic",
	"organic":               "Organic Alternative",
	"verify_badge":          "⚠️ Verify with agronomist",
	"copy":                  "Copy",
	"severity_healthy":      "🟢 Healthy",
	"severity_severe":       "🔴 Severe",
	"severity_moderate":     "🟠 Moderate",
	"severity_mild":         "🟡 Mild",
	"severity_unknown":      "Unknown",
}

// DefaultBundle returns a copy of the embedded default-language bundle.
func DefaultBundle() Bundle {
	return defaultResources.Clone()
}
