package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"decimal-calculator/internal/calculator"
)

var _ calculator.Store = (*FileStore)(nil)

// FileStore keeps the history in a single file whose extension selects the codec.
type FileStore struct {
	path  string
	codec Codec
}

// CodecFor picks a codec from the file extension: .json, .yaml/.yml, and
// .csv (also used when there is no extension).
func CodecFor(path string) (Codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", "":
		return CSVCodec{}, nil
	case ".json":
		return JSONCodec{}, nil
	case ".yaml", ".yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported history file extension %q", ext)
	}
}

// NewFileStore returns a store for path.
func NewFileStore(path string) (*FileStore, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, codec: codec}, nil
}

// Path is the history file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes history, creating the parent directory when needed. The file
// is replaced atomically.
func (s *FileStore) Save(history []calculator.Calculation) error {
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, history); err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the history. A missing file is an empty history.
func (s *FileStore) Load() ([]calculator.Calculation, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	history, err := s.codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return history, nil
}
