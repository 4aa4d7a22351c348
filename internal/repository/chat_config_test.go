package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestGetConfig_CacheHandsOutCopies(t *testing.T) {
	r := &CachedConfigRepository{enableCache: true}
	seed := defaultConfig(-42)
	seed.ExemptUserIDs = pq.Int64Array{1, 2}
	r.cache.Store(int64(-42), &cachedConfig{cfg: &seed, expiresAt: time.Now().Add(time.Minute)})

	first, err := r.GetConfig(context.Background(), -42)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}

	first.ScanEnabled = false
	first.MaxWarnings = 99
	first.ExemptUserIDs[0] = 777
	channel := int64(555)
	first.LogChannelID = &channel

	second, err := r.GetConfig(context.Background(), -42)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if !second.ScanEnabled {
		t.Error("mutation of a returned config leaked into the cache: ScanEnabled")
	}
	if second.MaxWarnings != 3 {
		t.Errorf("MaxWarnings = %d, want 3", second.MaxWarnings)
	}
	if second.ExemptUserIDs[0] != 1 {
		t.Errorf("ExemptUserIDs[0] = %d, want 1", second.ExemptUserIDs[0])
	}
	if second.LogChannelID != nil {
		t.Error("mutation of a returned config leaked into the cache: LogChannelID")
	}
}

func TestGetConfig_ConcurrentReadersGetDistinctStructs(t *testing.T) {
	r := &CachedConfigRepository{enableCache: true}
	seed := defaultConfig(-42)
	r.cache.Store(int64(-42), &cachedConfig{cfg: &seed, expiresAt: time.Now().Add(time.Minute)})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				cfg, err := r.GetConfig(context.Background(), -42)
				if err != nil {
					t.Error(err)
					return
				}
				cfg.ScanEnabled = !cfg.ScanEnabled
				cfg.ExemptUserIDs = append(cfg.ExemptUserIDs, int64(j))
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	final, err := r.GetConfig(context.Background(), -42)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if !final.ScanEnabled || len(final.ExemptUserIDs) != 0 {
		t.Errorf("cached config mutated by readers: %+v", final)
	}
}
