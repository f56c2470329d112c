package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nodel/pkg/cache"
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// Format selects the encoding of a snapshot.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name ("json", "yaml" or "yml").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", nerrors.New(nerrors.ErrCodeUnsupported, "unsupported snapshot format %q", name)
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", nerrors.New(nerrors.ErrCodeUnsupported, "cannot infer snapshot format of %s", path)
	}
	return ParseFormat(ext)
}

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// Marshal encodes snap in the given format.
func Marshal(snap nodel.Snapshot, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, snap, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and validates a snapshot.
func Unmarshal(data []byte, format Format) (nodel.Snapshot, error) {
	return Read(bytes.NewReader(data), format)
}

// Write encodes snap to w. JSON output is indented with two spaces.
func Write(w io.Writer, snap nodel.Snapshot, format Format) error {
	if snap == nil {
		snap = nodel.Snapshot{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return nerrors.Wrap(nerrors.ErrCodeInternal, err, "encode json")
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nerrors.Wrap(nerrors.ErrCodeInternal, err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nerrors.Wrap(nerrors.ErrCodeInternal, err, "encode yaml")
		}
	default:
		return nerrors.New(nerrors.ErrCodeUnsupported, "unsupported snapshot format %q", format)
	}
	return nil
}

// Read decodes a snapshot from r and validates it.
func Read(r io.Reader, format Format) (nodel.Snapshot, error) {
	var snap nodel.Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, nerrors.Wrap(nerrors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil && err != io.EOF {
			return nil, nerrors.Wrap(nerrors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return nil, nerrors.New(nerrors.ErrCodeUnsupported, "unsupported snapshot format %q", format)
	}
	if snap == nil {
		snap = nodel.Snapshot{}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// WriteFile writes snap to path in the format implied by its extension.
// The file is created with 0644 permissions.
func WriteFile(path string, snap nodel.Snapshot) error {
	if err := nerrors.ValidatePath(path); err != nil {
		return err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, snap, format)
}

// ReadFile reads and validates the snapshot at path, choosing the format
// from its extension.
func ReadFile(path string) (nodel.Snapshot, error) {
	if err := nerrors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nerrors.Wrap(nerrors.ErrCodeSnapshotNotFound, err, "snapshot %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

// Hash returns the SHA-256 of the compact JSON encoding of snap. Two
// snapshots hash equal exactly when they encode identically.
func Hash(snap nodel.Snapshot) (string, error) {
	if snap == nil {
		snap = nodel.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", nerrors.Wrap(nerrors.ErrCodeInternal, err, "hash snapshot")
	}
	return cache.Hash(data), nil
}
