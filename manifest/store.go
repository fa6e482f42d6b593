package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format is a manifest serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Unknown extensions are
// treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and indexes the manifest at path.
func Load(path string) (*Modpack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	mp, err := Read(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mp, nil
}

// Read decodes and indexes a manifest.
func Read(r io.Reader, format Format) (*Modpack, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var mp Modpack
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &mp)
	default:
		err = json.Unmarshal(data, &mp)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s manifest: %w", format, err)
	}

	if err := mp.reindex(); err != nil {
		return nil, err
	}
	return &mp, nil
}

// Write encodes the manifest. Only the mod list is written.
func Write(w io.Writer, format Format, mp *Modpack) error {
	data, err := Marshal(format, mp)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal encodes the manifest with two-space indentation.
func Marshal(format Format, mp *Modpack) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(mp,
			yaml.Indent(2),
			yaml.IndentSequence(true),
		)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml manifest: %w", err)
		}
		return data, nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(mp); err != nil {
			return nil, fmt.Errorf("encoding json manifest: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// Save writes the manifest to path, replacing any existing file only once
// the new content is fully written.
func Save(path string, mp *Modpack) error {
	data, err := Marshal(FormatFor(path), mp)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".manifest_*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("moving manifest into place: %w", err)
	}
	return nil
}
