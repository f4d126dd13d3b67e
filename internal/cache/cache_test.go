package cache

import (
	"testing"
	"time"
)

func TestKeyForURL_SameDomainSharesKey(t *testing.T) {
	a := KeyForURL("https://example.com/terms")
	b := KeyForURL("https://example.com/privacy")
	if a != b {
		t.Errorf("expected same key for same host, got %q vs %q", a, b)
	}
	c := KeyForURL("https://other.com/terms")
	if a == c {
		t.Error("expected different hosts to produce different keys")
	}
	if KeyForURL("https://www.example.com/terms") != a {
		t.Error("expected subdomains to share the registrable-domain key")
	}
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key("example.com")
	if _, found := c.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("payload"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, found := c.Get(key); !found || string(got) != "payload" {
		t.Fatalf("expected hit, got %q found=%v", got, found)
	}

	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("expected entry to expire")
	}
}
