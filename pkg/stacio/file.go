package stacio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.FromSlash(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, notFound(path, err)
	case err != nil:
		return nil, transport(path, err)
	}
	return data, nil
}

// writeFile creates parent directories as needed and replaces the file
// atomically.
func writeFile(path string, data []byte) error {
	path = filepath.FromSlash(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return transport(path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return transport(path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return transport(path, err)
	}
	if err := tmp.Close(); err != nil {
		return transport(path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return transport(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return transport(path, err)
	}
	return nil
}
