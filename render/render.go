// Package render builds localized HTML fragments for disease descriptions.
//
// This is the enforcement point for the human_verified trust signal: a
// description that has not been reviewed by a qualified human is always
// rendered with a visible verification warning, regardless of which cache
// tier served it. There is no option to omit the warning.
package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/agroshield/agroi18n"
)

// skeleton is the fragment structure filled in per description. Text is set
// through goquery so every value is HTML-escaped.
const skeleton = `<section class="disease-description">
  <h2 class="title"></h2>
  <p class="description"></p>
  <div class="treatment">
    <h3 class="treatment-heading"></h3>
    <div class="suggestion chemical"><h4></h4><p></p></div>
    <div class="suggestion organic"><h4></h4><p></p></div>
  </div>
</section>`

// TranslateFunc resolves a UI label key to its localized text, typically
// (*agroi18n.Loader).T. A nil func falls back to the embedded defaults.
type TranslateFunc func(key string) string

// Description renders the localized fragment for a disease description with
// lang and dir attributes set for the target language.
func Description(d *agroi18n.DiseaseDescription, lang string, t TranslateFunc) (string, error) {
	if d == nil {
		return "", fmt.Errorf("nil description")
	}
	if t == nil {
		defaults := agroi18n.DefaultBundle()
		t = func(key string) string {
			if v, ok := defaults[key]; ok {
				return v
			}
			return key
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(skeleton))
	if err != nil {
		return "", fmt.Errorf("parsing fragment skeleton: %w", err)
	}

	lang = agroi18n.NormalizeLanguage(lang)
	sec := doc.Find("section.disease-description")
	sec.SetAttr("lang", lang)
	sec.SetAttr("dir", agroi18n.Direction(lang))
	sec.SetAttr("data-disease-id", d.ID)

	sec.Find("h2.title").SetText(d.Title)
	sec.Find("p.description").SetText(d.Description)
	sec.Find("h3.treatment-heading").SetText(t("treatment_suggestions"))
	sec.Find(".chemical h4").SetText(t("chemical"))
	sec.Find(".chemical p").SetText(d.Treatment.Chemical)
	sec.Find(".organic h4").SetText(t("organic"))
	sec.Find(".organic p").SetText(d.Treatment.Organic)

	// The trust signal is unconditional: an unverified translation is never
	// shown without its caveat.
	if !d.HumanVerified {
		sec.PrependHtml(`<p class="verify-warning" role="alert"></p>`)
		sec.Find("p.verify-warning").SetText(t("verify_badge"))
	}

	return goquery.OuterHtml(sec)
}
