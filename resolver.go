package agroi18n

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// ResolutionState is the observable outcome of the most recent Resolve call.
// Callers render from this snapshot: a transient indicator while Loading,
// the description on success, a human-readable notice from Err otherwise.
type ResolutionState struct {
	DiseaseID   string
	Language    string
	Loading     bool
	Description *DiseaseDescription
	Err         error
}

// Resolver resolves localized long-form disease descriptions through the
// cache-then-network waterfall. It is re-triggered whenever the
// (diseaseID, language) pair changes; a resolution that is overtaken by a
// newer pair never overwrites the newer pair's state.
type Resolver struct {
	mu    sync.Mutex
	seq   uint64
	state ResolutionState

	baseURL  string
	client   *http.Client
	store    Store
	logger   *slog.Logger
	onChange func(ResolutionState)
}

// ResolverOption is a functional option for configuring the Resolver.
type ResolverOption func(*Resolver)

// WithResolverStore sets the structured local store consulted before the
// network.
func WithResolverStore(s Store) ResolverOption {
	return func(r *Resolver) {
		r.store = s
	}
}

// WithResolverBaseURL sets the origin serving description assets.
func WithResolverBaseURL(baseURL string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithResolverHTTPClient sets the HTTP client for description fetches.
// Description fetches are cache-permissive: pointing the client's transport
// at an edge.Cache lets cached assets answer offline.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithResolverLogger sets the logger for fetch failures.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithOnChange registers a callback invoked after every observable state
// transition, outside the resolver's lock.
func WithOnChange(fn func(ResolutionState)) ResolverOption {
	return func(r *Resolver) {
		r.onChange = fn
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client: http.DefaultClient,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve resolves the description for (diseaseID, lang): loading state is
// entered and the previous result cleared immediately, then the store is
// consulted, then the network; a freshly fetched description is persisted
// before it is returned. A non-success response maps to NotFoundError and
// transport or decode failures to FetchError; nothing escapes as a panic.
//
// If Resolve is called again for a different pair before this call
// finishes, the late result is returned to its caller but discarded from
// the observable state, which then belongs to the newer pair alone.
func (r *Resolver) Resolve(ctx context.Context, diseaseID, lang string) (*DiseaseDescription, error) {
	lang = NormalizeLanguage(lang)

	r.mu.Lock()
	r.seq++
	token := r.seq
	r.state = ResolutionState{DiseaseID: diseaseID, Language: lang, Loading: true}
	r.mu.Unlock()
	r.notify()

	desc, err := r.resolve(ctx, diseaseID, lang)
	if err != nil {
		r.logger.Warn("description resolution failed",
			"disease", diseaseID, "lang", lang, "error", err)
	}

	r.mu.Lock()
	if token != r.seq {
		// Superseded by a newer pair; leave its state alone.
		r.mu.Unlock()
		return desc, err
	}
	r.state = ResolutionState{
		DiseaseID:   diseaseID,
		Language:    lang,
		Description: desc,
		Err:         err,
	}
	r.mu.Unlock()
	r.notify()

	return desc, err
}

// State returns a snapshot of the current resolution state.
func (r *Resolver) State() ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.State())
}

func (r *Resolver) resolve(ctx context.Context, diseaseID, lang string) (*DiseaseDescription, error) {
	if diseaseID == "" || lang == "" {
		return nil, &NotFoundError{Language: lang, DiseaseID: diseaseID}
	}

	if r.store != nil {
		if d, ok := r.store.GetDescription(lang, diseaseID); ok {
			return &d, nil
		}
	}

	desc, err := r.fetchDescription(ctx, diseaseID, lang)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.PutDescription(lang, diseaseID, *desc); err != nil {
			r.logger.Warn("could not persist disease description",
				"disease", diseaseID, "lang", lang, "error", err)
		}
	}
	return desc, nil
}

func (r *Resolver) fetchDescription(ctx context.Context, diseaseID, lang string) (*DiseaseDescription, error) {
	path := DescriptionPath(lang, diseaseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NotFoundError{Language: lang, DiseaseID: diseaseID}
	}

	var desc DiseaseDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, &FetchError{Path: path, Cause: err}
	}
	return &desc, nil
}
