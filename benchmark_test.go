package modsync_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/git-pkgs/modsync"
	_ "github.com/git-pkgs/modsync/all"
)

var releaseResponse = map[string]any{
	"id":       0,
	"tag_name": "2.3.0-GTNH",
	"assets": []map[string]any{
		{"name": "Mod-2.3.0-GTNH-dev.jar", "url": "https://api.github.com/a/1", "browser_download_url": "https://github.com/d/1", "created_at": "2022-01-01T00:00:00Z"},
		{"name": "Mod-2.3.0-GTNH.jar", "url": "https://api.github.com/a/2", "browser_download_url": "https://github.com/d/2", "created_at": "2022-01-01T00:00:00Z"},
		{"name": "Mod-2.3.0-GTNH-sources.jar", "url": "https://api.github.com/a/3", "browser_download_url": "https://github.com/d/3", "created_at": "2022-01-01T00:00:00Z"},
	},
}

func BenchmarkFetchLatestRelease(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(releaseResponse)
	}))
	defer server.Close()

	src, _ := modsync.New("github", server.URL, modsync.DefaultClient())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = src.FetchLatestRelease(ctx, "GTNewHorizons", "Mod")
	}
}

func BenchmarkReconcileAll(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(releaseResponse)
	}))
	defer server.Close()

	src, _ := modsync.New("github", server.URL, modsync.DefaultClient())
	index := make(map[string]modsync.RepositorySummary, 50)
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("Mod%02d", i)
		index[name] = modsync.NewRepository(src, "GTNewHorizons", name, "")
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries := make([]*modsync.ModEntry, 0, len(index))
		for name := range index {
			entries = append(entries, &modsync.ModEntry{Name: name, Version: "2.2.0", License: "MIT"})
		}
		_, _ = modsync.ReconcileAll(ctx, index, entries, modsync.WithLogger(zerolog.Nop()))
	}
}

func BenchmarkURLBuilder(b *testing.B) {
	src, _ := modsync.New("github", "", nil)
	urls := src.URLs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = urls.Repository("GTNewHorizons", "NotEnoughItems")
		_ = urls.Release("GTNewHorizons", "NotEnoughItems", "2.3.0-GTNH")
		_ = urls.PURL("GTNewHorizons", "NotEnoughItems", "2.3.0-GTNH")
	}
}

func BenchmarkSupportedHosts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = modsync.SupportedHosts()
	}
}

func BenchmarkSelectAsset(b *testing.B) {
	assets := []modsync.Asset{
		{Name: "Mod-dev.jar"}, {Name: "Mod-1.0.jar"}, {Name: "Mod-sources.jar"}, {Name: "Mod-1.1.jar"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = modsync.SelectAsset(assets)
	}
}

func BenchmarkFetchLatestRelease_Parallel(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(releaseResponse)
	}))
	defer server.Close()

	src, _ := modsync.New("github", server.URL, modsync.DefaultClient())
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = src.FetchLatestRelease(ctx, "GTNewHorizons", "Mod")
		}
	})
}
