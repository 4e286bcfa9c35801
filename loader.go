package agroi18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Store is the structured local store the loader and resolver persist into.
// Reads report a miss as false and never fail; writes return an error the
// caller logs and continues on. Implementations must make each put atomic
// per key so concurrent writers cannot interleave partial values.
type Store interface {
	PutBundle(lang string, b Bundle) error
	GetBundle(lang string) (Bundle, bool)

	PutDescription(lang, diseaseID string, d DiseaseDescription) error
	GetDescription(lang, diseaseID string) (DiseaseDescription, bool)

	SavePreferredLanguage(lang string) error
	PreferredLanguage() (string, bool)
}

// Loader resolves translation bundles through the cache-then-network
// waterfall and owns the runtime locale state: the active language and the
// set of bundles merged into the live translation table.
//
// The state is initialized to the embedded default bundle, mutated on
// language switches, and reconstructible from the store plus the embedded
// defaults on every fresh start. There is no teardown.
type Loader struct {
	mu        sync.Mutex
	active    string
	resources map[string]Bundle

	baseURL string
	client  *http.Client
	store   Store
	logger  *slog.Logger
}

// LoaderOption is a functional option for configuring the Loader.
type LoaderOption func(*Loader)

// WithStore sets the structured local store consulted before the network.
// Without a store every non-default load goes to the network.
func WithStore(s Store) LoaderOption {
	return func(l *Loader) {
		l.store = s
	}
}

// WithBaseURL sets the origin serving /locales/ assets.
func WithBaseURL(baseURL string) LoaderOption {
	return func(l *Loader) {
		l.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for bundle and manifest fetches.
// Point its transport at an edge.Cache to get the second cache tier.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = c
	}
}

// WithLogger sets the logger for degraded-fallback warnings.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader with the embedded default language active.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		active:    DefaultLanguage,
		resources: map[string]Bundle{DefaultLanguage: DefaultBundle()},
		client:    http.DefaultClient,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load makes lang the active language and returns its effective bundle.
//
// The default language is served from the embedded bundle with no I/O. Other
// languages are served from the store when present; on a store miss the
// bundle is fetched from the network with caching disabled, persisted, and
// merged. On fetch failure the active language is left unchanged, a warning
// is logged, and the embedded default bundle is returned so callers can
// treat the result exactly like a default-language load.
//
// Load is total: it never returns an error and never panics.
func (l *Loader) Load(ctx context.Context, lang string) Bundle {
	lang = NormalizeLanguage(lang)

	if lang == "" || lang == DefaultLanguage {
		l.switchLanguage(DefaultLanguage)
		return DefaultBundle()
	}

	if l.store != nil {
		if cached, ok := l.store.GetBundle(lang); ok {
			l.merge(lang, cached)
			l.switchLanguage(lang)
			return cached.Clone()
		}
	}

	bundle, err := l.fetchBundle(ctx, lang)
	if err != nil {
		l.logger.Warn("locale load failed, serving embedded default",
			"lang", lang, "error", err)
		return DefaultBundle()
	}

	if l.store != nil {
		if err := l.store.PutBundle(lang, bundle); err != nil {
			l.logger.Warn("could not persist locale bundle", "lang", lang, "error", err)
		}
	}

	l.merge(lang, bundle)
	l.switchLanguage(lang)
	return bundle.Clone()
}

// T returns the translation for key in the active language, falling back to
// the embedded default bundle and finally to the key itself.
func (l *Loader) T(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.resources[l.active]; ok {
		if v, ok := b[key]; ok {
			return v
		}
	}
	if v, ok := defaultResources[key]; ok {
		return v
	}
	return key
}

// Active returns the currently active language code.
func (l *Loader) Active() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// HasBundle reports whether a bundle for lang has been merged into the
// runtime state.
func (l *Loader) HasBundle(lang string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.resources[NormalizeLanguage(lang)]
	return ok
}

// RestorePreference loads the language persisted by a previous session.
// With no saved preference, or no store, the embedded default stays active.
func (l *Loader) RestorePreference(ctx context.Context) Bundle {
	if l.store == nil {
		return DefaultBundle()
	}
	lang, ok := l.store.PreferredLanguage()
	if !ok {
		return DefaultBundle()
	}
	return l.Load(ctx, lang)
}

// Manifest fetches the locale manifest listing the languages the origin
// ships. The request is cache-permissive, so an edge.Cache transport can
// answer it offline.
func (l *Loader) Manifest(ctx context.Context) (LocaleManifest, error) {
	var m LocaleManifest

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+ManifestPath, nil)
	if err != nil {
		return m, &FetchError{Path: ManifestPath, Cause: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return m, &FetchError{Path: ManifestPath, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return m, &FetchError{Path: ManifestPath, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return m, &FetchError{Path: ManifestPath, Cause: err}
	}
	return m, nil
}

// SavePreference persists the active language as the user preference for
// the next session. Kept separate from Load so that loading the embedded
// default stays free of store I/O; the language switcher calls it after a
// deliberate user switch.
func (l *Loader) SavePreference() {
	if l.store == nil {
		return
	}
	lang := l.Active()
	if err := l.store.SavePreferredLanguage(lang); err != nil {
		l.logger.Warn("could not persist language preference", "lang", lang, "error", err)
	}
}

// switchLanguage makes lang active.
func (l *Loader) switchLanguage(lang string) {
	l.mu.Lock()
	l.active = lang
	l.mu.Unlock()
}

// merge folds a bundle into the runtime translation state. Merging is
// overwrite-by-key and idempotent: repeated merges of the same bundle
// produce the same effective translation set, and keys absent from the new
// bundle are left untouched.
func (l *Loader) merge(lang string, b Bundle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.resources[lang]
	if !ok {
		l.resources[lang] = b.Clone()
		return
	}
	for k, v := range b {
		existing[k] = v
	}
}

// fetchBundle fetches a bundle from the origin, bypassing transport caches:
// an explicit user-triggered load must observe fresh content.
func (l *Loader) fetchBundle(ctx context.Context, lang string) (Bundle, error) {
	path := BundlePath(lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Path: path, StatusCode: resp.StatusCode}
	}

	var bundle Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}
	if bundle == nil {
		return nil, &FetchError{Path: path, Cause: fmt.Errorf("empty bundle body")}
	}
	return bundle, nil
}
