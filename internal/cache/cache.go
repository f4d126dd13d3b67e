// Package cache provides the short-TTL assessment cache. Concurrent
// requests for the same key may both miss and both compute; at-most-once
// computation is not a goal here.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a normalized request identity.
func Key(identity string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(identity))))
	return "clauselens:v1:" + hex.EncodeToString(hash[:])
}

// KeyForURL normalizes a URL to its registrable domain so repeated
// analyses of the same site share one entry regardless of subdomain or
// path. Unparseable input falls back to the raw string.
func KeyForURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return Key(rawURL)
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(parsed.Hostname())
	if err != nil {
		return Key(parsed.Hostname())
	}
	return Key(domain)
}
