// Package edge provides the transport-level cache tier for localization
// assets: an http.RoundTripper that shadows the /locales/ surface with a
// cache-first, background-revalidate policy over named, generation-scoped
// on-disk entries.
//
// The edge cache is deliberately independent of the structured store: it is
// keyed by request URL, not by language or disease identifier, and its
// entries are invalidated wholesale by retiring a generation rather than per
// key. The two tiers are never merged.
package edge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultGeneration names the cache generation. Changing it orphans all
// previous entries; Activate removes them once the new generation is live.
// Deployments should override it with a build-derived name so a release
// invalidates the previous release's assets.
const DefaultGeneration = "agroshield-v2"

// DefaultManifest is the fixed set of paths seeded at install time: the app
// shell, icons, the locale manifest, and every shipped translation bundle.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/favicon.ico",
	"/logo192.png",
	"/locales-manifest.json",
	"/locales/en/translation.json",
	"/locales/hi/translation.json",
	"/locales/kn/translation.json",
}

// Cache is an intercepting HTTP cache. Requests for localization assets are
// answered from the active generation when possible and revalidated in the
// background; everything else passes through to the base transport.
type Cache struct {
	root       string
	generation string
	origin     string
	base       http.RoundTripper
	manifest   []string
	limiter    *revalidateLimiter
	logger     *slog.Logger

	mu     sync.Mutex
	active bool

	background sync.WaitGroup
}

// Option is a functional option for configuring the Cache.
type Option func(*Cache)

// WithGeneration overrides the generation name, typically with a value
// derived from the build hash.
func WithGeneration(name string) Option {
	return func(c *Cache) {
		c.generation = name
	}
}

// WithBase sets the transport used for origin requests.
func WithBase(rt http.RoundTripper) Option {
	return func(c *Cache) {
		c.base = rt
	}
}

// WithManifest overrides the install-time seed manifest.
func WithManifest(paths []string) Option {
	return func(c *Cache) {
		c.manifest = paths
	}
}

// WithRevalidateLimit caps background revalidations per minute. A zero limit
// disables revalidation, which keeps served entries frozen until reinstall.
func WithRevalidateLimit(perMinute int) Option {
	return func(c *Cache) {
		c.limiter = newRevalidateLimiter(perMinute)
	}
}

// WithLogger sets the logger for background refresh outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an edge cache rooted at dir, fetching from origin.
func New(dir, origin string, opts ...Option) *Cache {
	c := &Cache{
		root:       dir,
		generation: DefaultGeneration,
		origin:     strings.TrimRight(origin, "/"),
		base:       http.DefaultTransport,
		manifest:   DefaultManifest,
		limiter:    newRevalidateLimiter(60),
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Generation returns the generation name this cache serves from.
func (c *Cache) Generation() string {
	return c.generation
}

// Install seeds the generation with every manifest path. The seed is
// all-or-nothing: entries are staged in a temporary directory and only
// renamed into place once every path has been fetched successfully.
func (c *Cache) Install(ctx context.Context) error {
	if err := os.MkdirAll(c.root, 0o700); err != nil {
		return fmt.Errorf("creating cache root: %w", err)
	}

	staging, err := os.MkdirTemp(c.root, ".install-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, path := range c.manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
		if err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
		resp, err := c.base.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("install %s: unexpected status %d", path, resp.StatusCode)
		}

		if err := writeEntry(staging, entryName(req.URL), body, resp.Header.Get("Content-Type")); err != nil {
			return fmt.Errorf("install %s: %w", path, err)
		}
	}

	// Swap the staged seed into place, displacing any same-named generation.
	genDir := filepath.Join(c.root, c.generation)
	old := genDir + ".old"
	os.RemoveAll(old)
	if _, err := os.Stat(genDir); err == nil {
		if err := os.Rename(genDir, old); err != nil {
			return fmt.Errorf("displacing previous seed: %w", err)
		}
	}
	if err := os.Rename(staging, genDir); err != nil {
		os.Rename(old, genDir)
		return fmt.Errorf("installing generation: %w", err)
	}
	os.RemoveAll(old)

	return nil
}

// Activate makes the installed generation live and retires every sibling
// generation directory. Old generations are only discarded here, after a
// successful install, never before the replacement exists.
func (c *Cache) Activate() error {
	genDir := filepath.Join(c.root, c.generation)
	if _, err := os.Stat(genDir); err != nil {
		return fmt.Errorf("generation %q is not installed: %w", c.generation, err)
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()

	entries, err := os.ReadDir(c.root)
	if err != nil {
		return fmt.Errorf("listing generations: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == c.generation {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.root, e.Name())); err != nil {
			c.logger.Warn("could not retire cache generation", "generation", e.Name(), "error", err)
		}
	}
	return nil
}

// RoundTrip implements http.RoundTripper. Localization asset requests are
// served cache-first with a fire-and-forget background revalidation; cache
// misses go to the network and successful bodies are written back. Requests
// outside the watched surface, non-GET requests, and requests carrying
// Cache-Control: no-store pass through untouched.
func (c *Cache) RoundTrip(req *http.Request) (*http.Response, error) {
	if !c.intercepts(req) {
		return c.base.RoundTrip(req)
	}

	if body, contentType, ok := c.lookup(req.URL); ok {
		c.revalidate(req)
		return cachedResponse(req, body, contentType), nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		// No cached entry and no network: nothing from this layer.
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		c.storeEntry(req.URL, body, resp.Header.Get("Content-Type"))
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
	}
	return resp, nil
}

// Close waits for in-flight background revalidations to finish.
func (c *Cache) Close() error {
	c.background.Wait()
	return nil
}

// intercepts reports whether this layer shadows the request.
func (c *Cache) intercepts(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if strings.Contains(req.Header.Get("Cache-Control"), "no-store") {
		return false
	}

	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if !active {
		return false
	}

	path := req.URL.Path
	return strings.HasPrefix(path, "/locales/") || path == "/locales-manifest.json"
}

// revalidate refreshes a served entry in the background. The response that
// was already sent is never touched; a successful fetch only updates the
// on-disk entry for the next request. Refreshes are rate-limited and
// detached from the triggering request's context.
func (c *Cache) revalidate(req *http.Request) {
	if !c.limiter.allow() {
		return
	}

	refresh := req.Clone(context.WithoutCancel(req.Context()))
	c.background.Add(1)
	go func() {
		defer c.background.Done()

		resp, err := c.base.RoundTrip(refresh)
		if err != nil {
			// Suppressed: the cached response already answered the request.
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return
		}
		c.storeEntry(refresh.URL, body, resp.Header.Get("Content-Type"))
		c.logger.Debug("edge entry revalidated", "url", refresh.URL.String())
	}()
}

// lookup reads a cached entry for the URL from the active generation.
func (c *Cache) lookup(u *url.URL) (body []byte, contentType string, ok bool) {
	name := entryName(u)
	genDir := filepath.Join(c.root, c.generation)

	body, err := os.ReadFile(filepath.Join(genDir, name+".body"))
	if err != nil {
		return nil, "", false
	}
	if ct, err := os.ReadFile(filepath.Join(genDir, name+".type")); err == nil {
		contentType = string(ct)
	}
	return body, contentType, true
}

// storeEntry overwrites the entry for the URL in the active generation.
func (c *Cache) storeEntry(u *url.URL, body []byte, contentType string) {
	genDir := filepath.Join(c.root, c.generation)
	if err := writeEntry(genDir, entryName(u), body, contentType); err != nil {
		c.logger.Warn("could not write edge entry", "url", u.String(), "error", err)
	}
}

// writeEntry writes an entry atomically: a rename per file, so a concurrent
// reader sees either the old body or the new one, never a partial write.
func writeEntry(dir, name string, body []byte, contentType string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	if err := writeFileAtomic(filepath.Join(dir, name+".body"), body); err != nil {
		return err
	}
	if contentType != "" {
		return writeFileAtomic(filepath.Join(dir, name+".type"), []byte(contentType))
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// entryName derives the on-disk entry name from the request URL.
func entryName(u *url.URL) string {
	sum := sha256.Sum256([]byte(u.String()))
	return hex.EncodeToString(sum[:])
}

// cachedResponse synthesizes the response served from a cached entry.
func cachedResponse(req *http.Request, body []byte, contentType string) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// Verify Cache implements http.RoundTripper.
var _ http.RoundTripper = (*Cache)(nil)
