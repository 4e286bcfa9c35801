package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/agroshield/agroi18n"
)

var unverified = agroi18n.DiseaseDescription{
	ID:          "Tomato Late Blight",
	Title:       "Late Blight",
	Description: "Dark lesions on leaves.",
	Treatment: agroi18n.Treatment{
		Chemical: "Copper fungicide",
		Organic:  "Neem oil",
	},
	HumanVerified: false,
}

func parseFragment(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("rendered fragment does not parse: %v", err)
	}
	return doc
}

func TestDescription_UnverifiedAlwaysCarriesWarning(t *testing.T) {
	html, err := Description(&unverified, "hi", nil)
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	doc := parseFragment(t, html)
	warning := doc.Find("p.verify-warning")
	if warning.Length() != 1 {
		t.Fatal("an unverified description must carry the verification warning")
	}
	if role, _ := warning.Attr("role"); role != "alert" {
		t.Errorf("role = %q, want alert", role)
	}
	if warning.Text() != "⚠️ Verify with agronomist" {
		t.Errorf("warning text = %q", warning.Text())
	}
}

func TestDescription_VerifiedHasNoWarning(t *testing.T) {
	d := unverified
	d.HumanVerified = true

	html, err := Description(&d, "hi", nil)
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	doc := parseFragment(t, html)
	if doc.Find("p.verify-warning").Length() != 0 {
		t.Error("a verified description must not carry the warning")
	}
}

func TestDescription_ContentAndAttributes(t *testing.T) {
	html, err := Description(&unverified, "hi-IN", nil)
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	doc := parseFragment(t, html)
	sec := doc.Find("section.disease-description")

	if lang, _ := sec.Attr("lang"); lang != "hi" {
		t.Errorf("lang = %q, want the normalized code", lang)
	}
	if dir, _ := sec.Attr("dir"); dir != "ltr" {
		t.Errorf("dir = %q", dir)
	}
	if id, _ := sec.Attr("data-disease-id"); id != "Tomato Late Blight" {
		t.Errorf("data-disease-id = %q", id)
	}
	if got := sec.Find("h2.title").Text(); got != "Late Blight" {
		t.Errorf("title = %q", got)
	}
	if got := sec.Find(".chemical p").Text(); got != "Copper fungicide" {
		t.Errorf("chemical = %q", got)
	}
	if got := sec.Find(".organic p").Text(); got != "Neem oil" {
		t.Errorf("organic = %q", got)
	}
}

func TestDescription_UsesTranslateFunc(t *testing.T) {
	translations := map[string]string{
		"treatment_suggestions": "उपचार सुझाव",
		"chemical":              "रासायनिक",
		"organic":               "जैविक",
		"verify_badge":          "⚠️ कृषि विशेषज्ञ से सत्यापित करें",
	}
	translate := func(key string) string {
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	html, err := Description(&unverified, "hi", translate)
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	doc := parseFragment(t, html)
	if got := doc.Find("h3.treatment-heading").Text(); got != "उपचार सुझाव" {
		t.Errorf("heading = %q", got)
	}
	if got := doc.Find("p.verify-warning").Text(); got != "⚠️ कृषि विशेषज्ञ से सत्यापित करें" {
		t.Errorf("warning = %q", got)
	}
}

func TestDescription_EscapesHTML(t *testing.T) {
	d := unverified
	d.Title = `<script>alert("x")</script>`
	d.Description = `a < b & c`

	html, err := Description(&d, "en", nil)
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	if strings.Contains(html, "<script>") {
		t.Error("markup in field values must be escaped")
	}

	// The escaped text round-trips unchanged.
	doc := parseFragment(t, html)
	if got := doc.Find("h2.title").Text(); got != d.Title {
		t.Errorf("title = %q, want the literal text", got)
	}
	if got := doc.Find("p.description").Text(); got != d.Description {
		t.Errorf("description = %q", got)
	}
}

func TestDescription_NilDescription(t *testing.T) {
	if _, err := Description(nil, "en", nil); err == nil {
		t.Fatal("expected an error for a nil description")
	}
}
