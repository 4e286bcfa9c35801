package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agroshield/agroi18n"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed store for kiosk deployments where several
// thin clients share one cache box on the local network. Values are stored
// as JSON without expiry; staleness is acceptable for this content.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "agroshield:")
}

// NewRedisStore creates a new Redis store with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "agroshield:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// PutBundle stores a bundle under the language code.
func (s *RedisStore) PutBundle(lang string, b agroi18n.Bundle) error {
	return s.put("bundle:"+lang, "bundles", b)
}

// GetBundle returns the stored bundle for lang.
func (s *RedisStore) GetBundle(lang string) (agroi18n.Bundle, bool) {
	var b agroi18n.Bundle
	if !s.get("bundle:"+lang, &b) {
		return nil, false
	}
	return b, true
}

// PutDescription stores a description under the composite key.
func (s *RedisStore) PutDescription(lang, diseaseID string, d agroi18n.DiseaseDescription) error {
	return s.put("desc:"+agroi18n.DescriptionKey(lang, diseaseID), "descriptions", d)
}

// GetDescription returns the stored description for the composite key.
func (s *RedisStore) GetDescription(lang, diseaseID string) (agroi18n.DiseaseDescription, bool) {
	var d agroi18n.DiseaseDescription
	if !s.get("desc:"+agroi18n.DescriptionKey(lang, diseaseID), &d) {
		return agroi18n.DiseaseDescription{}, false
	}
	return d, true
}

// SavePreferredLanguage records the language preference.
func (s *RedisStore) SavePreferredLanguage(lang string) error {
	err := s.client.Set(context.Background(), s.keyPrefix+"pref:language", lang, 0).Err()
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "prefs", Cause: err}
	}
	return nil
}

// PreferredLanguage returns the recorded language preference.
func (s *RedisStore) PreferredLanguage() (string, bool) {
	val, err := s.client.Get(context.Background(), s.keyPrefix+"pref:language").Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *RedisStore) put(key, collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: collection, Cause: err}
	}
	if err := s.client.Set(context.Background(), s.keyPrefix+key, string(data), 0).Err(); err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: collection, Cause: err}
	}
	return nil
}

func (s *RedisStore) get(key string, v any) bool {
	val, err := s.client.Get(context.Background(), s.keyPrefix+key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		// Treat transport errors as a cache miss
		return false
	}
	return json.Unmarshal([]byte(val), v) == nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping() error {
	return s.client.Ping(context.Background()).Err()
}

// Verify RedisStore implements Store and the loader's store contract.
var _ Store = (*RedisStore)(nil)
var _ agroi18n.Store = (*RedisStore)(nil)
