package session

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Store is one session's key-value storage.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Snapshot() (map[string]string, error)
	Close() error
}

// Info describes a known session.
type Info struct {
	ID      string
	Keys    int
	Updated time.Time
}

// Registry opens, lists and ends sessions of one driver.
type Registry interface {
	Open(id string) (Store, error)
	List() ([]Info, error)
	End(id string) error
	Close() error
}

// Config selects the driver and where it keeps its data.
type Config struct {
	Driver string
	Dir    string
}

// Open returns the registry for the configured driver.
func Open(cfg Config) (Registry, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryRegistry(), nil
	case DriverFile:
		r := NewFileRegistry(filepath.Join(cfg.Dir, "sessions"))
		if err := r.Init(); err != nil {
			return nil, err
		}
		return r, nil
	case DriverSQLite:
		return OpenSQLite(filepath.Join(cfg.Dir, "sessions.db"))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidateID rejects ids that are not UUIDs; they end up in file names.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Memory
	updated  map[string]time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*Memory),
		updated:  make(map[string]time.Time),
	}
}

func (r *MemoryRegistry) Open(id string) (Store, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[id]
	if !ok {
		m = NewMemory()
		r.sessions[id] = m
	}
	r.updated[id] = time.Now()
	return m, nil
}

func (r *MemoryRegistry) List() ([]Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, len(r.sessions))
	for id, m := range r.sessions {
		snap, _ := m.Snapshot()
		out = append(out, Info{ID: id, Keys: len(snap), Updated: r.updated[id]})
	}
	sortInfos(out)
	return out, nil
}

func (r *MemoryRegistry) End(id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	delete(r.updated, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Close() error { return nil }

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Updated.Equal(infos[j].Updated) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Updated.After(infos[j].Updated)
	})
}
