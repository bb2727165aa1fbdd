package filedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrCorrupt marks a collection file that exists but does not deserialize.
// It is deliberately distinct from the file-absent case, which self-heals.
var ErrCorrupt = errors.New("collection file is corrupt")

// Store persists each collection as one pretty-printed JSON array file under
// a single data directory. Every read-modify-write cycle on a collection runs
// under that collection's mutex, so concurrent requests within the process
// cannot lose updates to each other.
type Store struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filedb: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filedb: create data dir: %w", err)
	}
	return &Store{dir: dir, locks: map[string]*sync.Mutex{}}, nil
}

func (s *Store) Dir() string { return s.dir }

// Init creates any missing collection files with an empty array. Files that
// already exist are left untouched, so running it twice is a no-op.
func (s *Store) Init(collections ...string) error {
	for _, name := range collections {
		lock := s.lock(name)
		lock.Lock()
		err := s.ensure(name)
		lock.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) ensure(name string) error {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return s.replace(name, []byte("[]"))
}

// readRaw returns the raw file contents, seeding an empty collection when the
// file is absent. Corruption is left to the caller to detect on unmarshal.
func (s *Store) readRaw(name string) ([]byte, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		if err := s.replace(name, []byte("[]")); err != nil {
			return nil, err
		}
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// replace rewrites the collection file in full via a temp file and rename, so
// readers never observe a partially written array.
func (s *Store) replace(name string, payload []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
