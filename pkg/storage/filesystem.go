package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists downloaded files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./downloads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveStream copies from reader into the named file under the base dir and
// returns the stored name. Directory components in filename are discarded so
// a server-supplied name cannot escape the base dir.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (string, error) {
	name, err := sanitize(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.baseDir, name)
	tmp, err := os.CreateTemp(s.baseDir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("write download stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("close download file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("finalize download file: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	name, err := sanitize(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("open download file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	name, err := sanitize(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete download file: %w", err)
	}
	return nil
}

// Path exposes the on-disk path for a stored name.
func (s *LocalStorage) Path(filename string) string {
	name, err := sanitize(filename)
	if err != nil {
		return s.baseDir
	}
	return filepath.Join(s.baseDir, name)
}

func sanitize(filename string) (string, error) {
	name := filepath.Base(filepath.Clean(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/")))
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	return name, nil
}
