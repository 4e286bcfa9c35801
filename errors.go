package agroi18n

import "fmt"

// StoreError indicates a structured-store failure (quota, serialization,
// closed database). Store reads never surface it; writes return it so the
// caller can log and continue.
type StoreError struct {
	Op         string // "put" or "get"
	Collection string // "bundles", "descriptions" or "prefs"
	Cause      error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Collection, e.Cause)
	}
	return fmt.Sprintf("store error: %s %s", e.Op, e.Collection)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// FetchError indicates a network failure for a localization resource: the
// request did not complete, the origin answered with a non-success status,
// or the body could not be decoded. All three fold into the same fallback
// path.
type FetchError struct {
	Path       string
	StatusCode int // zero when the request never completed
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Path, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("fetch %s failed", e.Path)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates that a disease description exists in neither cache
// tier nor on the origin. This is an expected condition: not every disease
// has a localized description in every language.
type NotFoundError struct {
	Language  string
	DiseaseID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no description for %q in language %q", e.DiseaseID, e.Language)
}
