package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  ghp_abc123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tok, err := FileToken(path).Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "ghp_abc123" {
		t.Errorf("Token = %q, want %q", tok, "ghp_abc123")
	}
}

func TestFileTokenMissing(t *testing.T) {
	tok, err := FileToken(filepath.Join(t.TempDir(), "nope")).Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "" {
		t.Errorf("Token = %q, want empty", tok)
	}
}

func TestEnvToken(t *testing.T) {
	t.Setenv("MODSYNC_TEST_A", "")
	t.Setenv("MODSYNC_TEST_B", "from-b")

	tok, _ := EnvToken{"MODSYNC_TEST_A", "MODSYNC_TEST_B"}.Token()
	if tok != "from-b" {
		t.Errorf("Token = %q, want %q", tok, "from-b")
	}
}

type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("keychain locked") }

func TestChainTokens(t *testing.T) {
	tests := []struct {
		name    string
		chain   TokenSource
		want    string
		wantErr bool
	}{
		{"first wins", ChainTokens(StaticToken("a"), StaticToken("b")), "a", false},
		{"skips empty", ChainTokens(StaticToken(""), nil, StaticToken("b")), "b", false},
		{"none", ChainTokens(StaticToken("")), "", false},
		{"error stops chain", ChainTokens(failingToken{}, StaticToken("b")), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.chain.Token()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildURLs(t *testing.T) {
	urls := &BaseURLs{
		RepositoryFn: func(owner, name string) string { return "https://example.com/" + owner + "/" + name },
		ReleaseFn: func(owner, name, tag string) string {
			return "https://example.com/" + owner + "/" + name + "/releases/tag/" + tag
		},
	}

	got := BuildURLs(urls, "GTNewHorizons", "NotEnoughItems", "2.3.1")
	if got["repository"] != "https://example.com/GTNewHorizons/NotEnoughItems" {
		t.Errorf("repository = %q", got["repository"])
	}
	if got["release"] != "https://example.com/GTNewHorizons/NotEnoughItems/releases/tag/2.3.1" {
		t.Errorf("release = %q", got["release"])
	}
	if got["purl"] != "pkg:generic/GTNewHorizons/NotEnoughItems" {
		t.Errorf("purl = %q", got["purl"])
	}

	noVersion := BuildURLs(urls, "o", "n", "")
	if _, ok := noVersion["release"]; ok {
		t.Error("release URL should be omitted without a version")
	}
}
