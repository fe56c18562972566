package prediction

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/predcompare/internal/fsutil"
)

// MaxFileSize caps the size of a predictions file accepted by LoadFile.
const MaxFileSize = 512 * 1024 * 1024

// LoadFile reads and decodes a predictions file. Any failure to read or
// decode it is returned as an *InputError. A missing "predictions" key is
// not an error here; callers check Envelope.HasPredictions.
func LoadFile(fsys fsutil.FileSystem, path string) (Envelope, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Envelope{}, &InputError{Path: path, Err: fmt.Errorf("must have .json extension, got %q", ext)}
	}

	data, err := fsutil.ReadFileLimited(fsys, cleanPath, MaxFileSize)
	if err != nil {
		return Envelope{}, &InputError{Path: path, Err: err}
	}
	return Decode(path, data)
}

// Decode parses an in-memory predictions document.
func Decode(name string, data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, &InputError{Path: name, Err: fmt.Errorf("failed to parse JSON: %w", err)}
	}
	return env, nil
}
