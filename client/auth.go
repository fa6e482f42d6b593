package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// TokenSource supplies the credential sent with every request.
// An empty token means requests go out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// EnvToken reads the first non-empty environment variable of the listed keys.
type EnvToken []string

func (e EnvToken) Token() (string, error) {
	for _, key := range e {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// FileToken reads a token from a file. A missing file yields no token.
type FileToken string

func (f FileToken) Token() (string, error) {
	if f == "" {
		return "", nil
	}
	data, err := os.ReadFile(string(f))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file %s: %w", string(f), err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ChainTokens returns the first non-empty token of the given sources.
func ChainTokens(sources ...TokenSource) TokenSource {
	return tokenChain(sources)
}

type tokenChain []TokenSource

func (c tokenChain) Token() (string, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		tok, err := s.Token()
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}
