package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("STRICT_AUTH", "")
	c := Load()
	if c.StoreDriver != "mongo" {
		t.Fatalf("store driver: %q", c.StoreDriver)
	}
	if c.TokenTTL != time.Hour {
		t.Fatalf("token ttl: %v", c.TokenTTL)
	}
	if c.StrictAuth {
		t.Fatalf("strict auth should default to false")
	}
	if c.TrustProxy {
		t.Fatalf("proxy headers should not be trusted by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("STRICT_AUTH", "true")
	t.Setenv("NOTIFY_WORKERS", "9")
	t.Setenv("SEED_WORKERS", "2")
	t.Setenv("TRUST_PROXY", "1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	c := Load()
	if c.StoreDriver != "mysql" || !c.StrictAuth || c.NotifyWorkers != 9 {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.SeedWorkers != 2 || !c.TrustProxy {
		t.Fatalf("seed workers %d, trust proxy %v", c.SeedWorkers, c.TrustProxy)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %v", c.CORSOrigins)
	}
}
