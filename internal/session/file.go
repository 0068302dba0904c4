package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type fileDocument struct {
	ID      string            `yaml:"id"`
	Updated time.Time         `yaml:"updated"`
	Values  map[string]string `yaml:"values"`
}

// FileRegistry keeps one YAML file per session in baseDir.
type FileRegistry struct {
	baseDir string
}

func NewFileRegistry(baseDir string) *FileRegistry {
	return &FileRegistry{baseDir: baseDir}
}

func (r *FileRegistry) Init() error {
	return os.MkdirAll(r.baseDir, 0755)
}

func (r *FileRegistry) path(id string) string {
	return filepath.Join(r.baseDir, id+".yaml")
}

func (r *FileRegistry) Open(id string) (Store, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	f := &File{id: id, path: r.path(id), values: make(map[string]string)}
	doc, err := readDocument(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if doc != nil && doc.Values != nil {
		f.values = doc.Values
	}
	return f, nil
}

func (r *FileRegistry) List() ([]Info, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, err
	}

	infos := make([]Info, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		doc, err := readDocument(filepath.Join(r.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		infos = append(infos, Info{ID: doc.ID, Keys: len(doc.Values), Updated: doc.Updated})
	}
	sortInfos(infos)
	return infos, nil
}

func (r *FileRegistry) End(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(r.path(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *FileRegistry) Close() error { return nil }

func readDocument(path string) (*fileDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", path, err)
	}
	return &doc, nil
}

// File is a session whose every change is written through to its YAML file.
type File struct {
	mu     sync.RWMutex
	id     string
	path   string
	values map[string]string
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyValues()
	next[key] = value
	if err := f.flush(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	next := f.copyValues()
	delete(next, key)
	if err := f.flush(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *File) Snapshot() (map[string]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.copyValues(), nil
}

func (f *File) copyValues() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *File) Close() error { return nil }

// flush writes values to a temp file and renames it so a crash never leaves
// half a document. The in-memory map is only replaced once this succeeds.
func (f *File) flush(values map[string]string) error {
	data, err := yaml.Marshal(fileDocument{ID: f.id, Updated: time.Now(), Values: values})
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
