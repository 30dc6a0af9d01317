package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "RATE_CACHE_HOURS", "EXCHANGE_RATE_ATTEMPTS", "IMPORT_WORKERS"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.StoreDriver != "mysql" || c.RateTTL != 24*time.Hour || c.RatesAttempts != 1 || c.ImportWorkers != 4 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("RATE_CACHE_HOURS", "6")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("REDIS_DB", "not-a-number")

	c := Load()
	if c.StoreDriver != "sqlite" || c.RateTTL != 6*time.Hour || c.CacheTTL != 30*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.RedisDB != 0 {
		t.Fatalf("bad int must fall back to default, got %d", c.RedisDB)
	}
}
