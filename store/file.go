package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one JSON document per record at <dir>/<category>/<id>.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(category, id string) string {
	return filepath.Join(s.dir, category, id)
}

func (s *FileStore) Store(_ context.Context, category, id string, v any) (err error) {
	defer func() { observe("file", "store", err) }()

	if err := validKey(category, id); err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	if err := writeAtomic(s.path(category, id), data); err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *FileStore) Restore(_ context.Context, category, id string, v any) (err error) {
	defer func() { observe("file", "restore", err) }()

	if err := validKey(category, id); err != nil {
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	data, err := os.ReadFile(s.path(category, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *FileStore) List(_ context.Context, category string) (ids []string, err error) {
	defer func() { observe("file", "list", err) }()

	entries, err := os.ReadDir(filepath.Join(s.dir, category))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: "list", Category: category, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// writeAtomic writes via a temp file in the same directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func validKey(category, id string) error {
	for _, part := range []string{category, id} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("invalid key component %q", part)
		}
	}
	return nil
}
