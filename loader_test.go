package agroi18n

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeStore implements Store and counts operations, so tests can assert
// which cache tier answered a load.
type fakeStore struct {
	mu      sync.Mutex
	bundles map[string]Bundle
	descs   map[string]DiseaseDescription
	pref    string
	hasPref bool

	bundleGets, bundlePuts int
	descGets, descPuts     int
	prefSaves              int
	putErr                 error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bundles: make(map[string]Bundle),
		descs:   make(map[string]DiseaseDescription),
	}
}

func (s *fakeStore) PutBundle(lang string, b Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundlePuts++
	if s.putErr != nil {
		return s.putErr
	}
	s.bundles[lang] = b.Clone()
	return nil
}

func (s *fakeStore) GetBundle(lang string) (Bundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundleGets++
	b, ok := s.bundles[lang]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

func (s *fakeStore) PutDescription(lang, id string, d DiseaseDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descPuts++
	if s.putErr != nil {
		return s.putErr
	}
	s.descs[DescriptionKey(lang, id)] = d
	return nil
}

func (s *fakeStore) GetDescription(lang, id string) (DiseaseDescription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descGets++
	d, ok := s.descs[DescriptionKey(lang, id)]
	return d, ok
}

func (s *fakeStore) SavePreferredLanguage(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefSaves++
	s.pref = lang
	s.hasPref = true
	return nil
}

func (s *fakeStore) PreferredLanguage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref, s.hasPref
}

func (s *fakeStore) counts() (bundleGets, bundlePuts, prefSaves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundleGets, s.bundlePuts, s.prefSaves
}

// failingTransport fails the test if any network request is made.
type failingTransport struct {
	t *testing.T
}

func (f failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.t.Errorf("unexpected network request: %s %s", req.Method, req.URL)
	return nil, fmt.Errorf("network disabled in this test")
}

func noNetworkClient(t *testing.T) *http.Client {
	return &http.Client{Transport: failingTransport{t: t}}
}

func TestLoader_DefaultLanguage_NoIO(t *testing.T) {
	s := newFakeStore()
	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))

	b := l.Load(context.Background(), "en")

	if !reflect.DeepEqual(b, DefaultBundle()) {
		t.Error("expected the embedded default bundle")
	}
	if l.Active() != "en" {
		t.Errorf("active = %q, want en", l.Active())
	}

	gets, puts, prefs := s.counts()
	if gets != 0 || puts != 0 || prefs != 0 {
		t.Errorf("default load touched the store: gets=%d puts=%d prefs=%d", gets, puts, prefs)
	}
}

func TestLoader_EmptyLanguage_FallsBackToDefault(t *testing.T) {
	l := NewLoader(WithHTTPClient(noNetworkClient(t)))

	b := l.Load(context.Background(), "")

	if b["app_title"] != "AgroShield" {
		t.Errorf("app_title = %q", b["app_title"])
	}
	if l.Active() != "en" {
		t.Errorf("active = %q, want en", l.Active())
	}
}

func TestLoader_StoreHit_NoNetwork(t *testing.T) {
	s := newFakeStore()
	s.bundles["hi"] = Bundle{"app_title": "एग्रोशील्ड"}

	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))
	b := l.Load(context.Background(), "hi")

	if b["app_title"] != "एग्रोशील्ड" {
		t.Errorf("app_title = %q", b["app_title"])
	}
	if l.Active() != "hi" {
		t.Errorf("active = %q, want hi", l.Active())
	}
	if l.T("app_title") != "एग्रोशील्ड" {
		t.Errorf("T(app_title) = %q", l.T("app_title"))
	}
}

func TestLoader_StoreMiss_FetchesPersistsAndMerges(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/locales/hi/translation.json" {
			http.NotFound(w, r)
			return
		}
		if cc := r.Header.Get("Cache-Control"); cc != "no-store" {
			t.Errorf("expected no-store request, got Cache-Control=%q", cc)
		}
		fmt.Fprint(w, `{"app_title": "एग्रोशील्ड", "copy": "कॉपी"}`)
	}))
	defer srv.Close()

	s := newFakeStore()
	l := NewLoader(WithStore(s), WithBaseURL(srv.URL))

	b := l.Load(context.Background(), "hi")

	if b["copy"] != "कॉपी" {
		t.Errorf("copy = %q", b["copy"])
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1", requests.Load())
	}
	if stored, ok := s.bundles["hi"]; !ok || stored["app_title"] != "एग्रोशील्ड" {
		t.Error("bundle was not persisted")
	}
	if l.Active() != "hi" {
		t.Errorf("active = %q, want hi", l.Active())
	}

	// Second load is served from the store.
	l2 := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))
	l2.Load(context.Background(), "hi")
	if l2.T("app_title") != "एग्रोशील्ड" {
		t.Error("second loader should hit the store")
	}
}

func TestLoader_FetchFailure_ReturnsDefaultAndKeepsLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := newFakeStore()
	s.bundles["hi"] = Bundle{"app_title": "एग्रोशील्ड"}
	l := NewLoader(WithStore(s), WithBaseURL(srv.URL))
	l.Load(context.Background(), "hi")

	b := l.Load(context.Background(), "kn")

	if !reflect.DeepEqual(b, DefaultBundle()) {
		t.Error("failed load should return the embedded default bundle")
	}
	if l.Active() != "hi" {
		t.Errorf("active language changed on failure: %q", l.Active())
	}
}

func TestLoader_MalformedBundle_TreatedAsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer srv.Close()

	l := NewLoader(WithBaseURL(srv.URL))
	b := l.Load(context.Background(), "hi")

	if !reflect.DeepEqual(b, DefaultBundle()) {
		t.Error("malformed body should fall back to the embedded default")
	}
	if l.Active() != "en" {
		t.Errorf("active = %q, want en", l.Active())
	}
}

func TestLoader_PutFailureDoesNotBreakLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"app_title": "ಅಗ್ರೋಶೀಲ್ಡ್"}`)
	}))
	defer srv.Close()

	s := newFakeStore()
	s.putErr = &StoreError{Op: "put", Collection: "bundles", Cause: fmt.Errorf("quota exceeded")}
	l := NewLoader(WithStore(s), WithBaseURL(srv.URL))

	b := l.Load(context.Background(), "kn")

	if b["app_title"] != "ಅಗ್ರೋಶೀಲ್ಡ್" {
		t.Error("load should succeed even when persistence fails")
	}
	if l.Active() != "kn" {
		t.Errorf("active = %q, want kn", l.Active())
	}
}

func TestLoader_NormalizesLanguageCodes(t *testing.T) {
	s := newFakeStore()
	s.bundles["hi"] = Bundle{"app_title": "एग्रोशील्ड"}
	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))

	l.Load(context.Background(), "hi-IN")

	if l.Active() != "hi" {
		t.Errorf("active = %q, want hi", l.Active())
	}

	l.Load(context.Background(), "en-US")
	if l.Active() != "en" {
		t.Errorf("active = %q, want en", l.Active())
	}
}

func TestLoader_RepeatedLoadIsIdempotent(t *testing.T) {
	s := newFakeStore()
	s.bundles["hi"] = Bundle{"app_title": "एग्रोशील्ड"}
	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))

	first := l.Load(context.Background(), "hi")
	second := l.Load(context.Background(), "hi")

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated loads should produce the same bundle")
	}
	if l.T("app_title") != "एग्रोशील्ड" {
		t.Errorf("T(app_title) = %q", l.T("app_title"))
	}
}

func TestLoader_T_Fallbacks(t *testing.T) {
	s := newFakeStore()
	s.bundles["hi"] = Bundle{"app_title": "एग्रोशील्ड"}
	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))
	l.Load(context.Background(), "hi")

	// Key missing from hi falls back to the embedded default.
	if got := l.T("analyze_image"); got != "Analyze Image" {
		t.Errorf("T(analyze_image) = %q", got)
	}
	// Key missing everywhere falls back to itself.
	if got := l.T("no_such_key"); got != "no_such_key" {
		t.Errorf("T(no_such_key) = %q", got)
	}
}

func TestLoader_SaveAndRestorePreference(t *testing.T) {
	s := newFakeStore()
	s.bundles["kn"] = Bundle{"app_title": "ಅಗ್ರೋಶೀಲ್ಡ್"}

	l := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))
	l.Load(context.Background(), "kn")
	l.SavePreference()

	if s.pref != "kn" {
		t.Errorf("persisted preference = %q, want kn", s.pref)
	}

	// A fresh loader reconstructs the state from the store.
	fresh := NewLoader(WithStore(s), WithHTTPClient(noNetworkClient(t)))
	fresh.RestorePreference(context.Background())

	if fresh.Active() != "kn" {
		t.Errorf("restored active = %q, want kn", fresh.Active())
	}
	if fresh.T("app_title") != "ಅಗ್ರೋಶೀಲ್ಡ್" {
		t.Errorf("T(app_title) = %q", fresh.T("app_title"))
	}
}

func TestLoader_ConcurrentLoadsSameLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"app_title": "एग्रोशील्ड"}`)
	}))
	defer srv.Close()

	s := newFakeStore()
	l := NewLoader(WithStore(s), WithBaseURL(srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Load(context.Background(), "hi")
		}()
	}
	wg.Wait()

	if b, ok := s.bundles["hi"]; !ok || b["app_title"] != "एग्रोशील्ड" {
		t.Error("store should hold the bundle after concurrent loads")
	}
	if l.T("app_title") != "एग्रोशील्ड" {
		t.Errorf("T(app_title) = %q", l.T("app_title"))
	}
}

func TestLoader_Manifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ManifestPath {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"locales": [{"code": "en", "label": "English"}, {"code": "hi", "label": "हिन्दी"}]}`)
	}))
	defer srv.Close()

	l := NewLoader(WithBaseURL(srv.URL))
	m, err := l.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}

	if !reflect.DeepEqual(m.Codes(), []string{"en", "hi"}) {
		t.Errorf("Codes = %v", m.Codes())
	}
}
