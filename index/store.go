package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is the name of the index file inside an index directory.
const FileName = "index.json"

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// ErrNotFound is returned by Open when the directory holds no index.
var ErrNotFound = errors.New("index not found")

// file is the on-disk form of an index.
type file struct {
	Schema    *Schema              `json:"schema"`
	Documents []Document           `json:"documents"`
	Postings  map[string][]Posting `json:"postings"`
}

// Path returns the path of the index file in dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Exists reports whether dir holds an index file.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// Save writes ix to dir, creating dir if needed. The index file is replaced
// atomically.
func Save(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create index dir %s: %w", dir, err)
	}

	data, err := json.Marshal(file{
		Schema:    ix.schema,
		Documents: ix.docs,
		Postings:  ix.postings,
	})
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("chmod temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpPath, Path(dir)); err != nil {
		return fmt.Errorf("rename index: %w", err)
	}

	success = true
	return nil
}

// Open loads the index in dir. The analyzer named by its schema is looked
// up in reg; a schema that does not match yields a *SchemaMismatchError.
func Open(dir string, reg *Registry) (*Index, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal index %s: %w", path, err)
	}
	if f.Schema == nil {
		return nil, &SchemaMismatchError{Reason: "no schema"}
	}

	a, err := f.Schema.Resolve(reg)
	if err != nil {
		return nil, err
	}

	for i, d := range f.Documents {
		if d.ID != i {
			return nil, fmt.Errorf("index %s: document %d has id %d", path, i, d.ID)
		}
	}
	if f.Postings == nil {
		f.Postings = make(map[string][]Posting)
	}

	return &Index{
		schema:   f.Schema,
		analyzer: a,
		docs:     f.Documents,
		postings: f.Postings,
	}, nil
}
