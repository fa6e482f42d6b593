// Package manifest loads and saves modpack manifests.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/modsync/internal/core"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid manifest")

// ValidationError reports a manifest entry that cannot be indexed.
type ValidationError struct {
	Index  int
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("mod #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("mod #%d (%s): %s", e.Index, e.Name, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Modpack is the set of mods tracked from upstream repositories.
type Modpack struct {
	GithubMods []*core.ModEntry `json:"github_mods" yaml:"github_mods"`

	byName map[string]*core.ModEntry
	repos  map[string]string // mod name -> upstream repository name
}

// New builds a modpack from entries, failing on empty or duplicate names.
func New(entries ...*core.ModEntry) (*Modpack, error) {
	mp := &Modpack{GithubMods: entries}
	if err := mp.reindex(); err != nil {
		return nil, err
	}
	return mp, nil
}

func (m *Modpack) reindex() error {
	m.byName = make(map[string]*core.ModEntry, len(m.GithubMods))
	m.repos = make(map[string]string, len(m.GithubMods))

	for i, e := range m.GithubMods {
		if e == nil {
			return &ValidationError{Index: i, Reason: "empty entry"}
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return &ValidationError{Index: i, Reason: "missing name"}
		}
		if _, dup := m.byName[e.Name]; dup {
			return &ValidationError{Index: i, Name: e.Name, Reason: "duplicate name"}
		}
		m.byName[e.Name] = e
		m.repos[e.Name] = e.Name
	}
	return nil
}

// Get returns the entry named name.
func (m *Modpack) Get(name string) (*core.ModEntry, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Add appends an entry, rejecting a name that is already tracked.
func (m *Modpack) Add(e *core.ModEntry) error {
	if m.byName == nil {
		if err := m.reindex(); err != nil {
			return err
		}
	}
	if e == nil || strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Index: len(m.GithubMods), Reason: "missing name"}
	}
	if _, dup := m.byName[e.Name]; dup {
		return &ValidationError{Index: len(m.GithubMods), Name: e.Name, Reason: "duplicate name"}
	}
	m.GithubMods = append(m.GithubMods, e)
	m.byName[e.Name] = e
	m.repos[e.Name] = e.Name
	return nil
}

// Entries returns the tracked entries in manifest order.
func (m *Modpack) Entries() []*core.ModEntry {
	return m.GithubMods
}

// Len returns the number of tracked mods.
func (m *Modpack) Len() int {
	return len(m.GithubMods)
}

// TrackedNames returns the upstream repository names the modpack references.
func (m *Modpack) TrackedNames() map[string]struct{} {
	names := make(map[string]struct{}, len(m.repos))
	for _, repo := range m.repos {
		names[repo] = struct{}{}
	}
	return names
}
