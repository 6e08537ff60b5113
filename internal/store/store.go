package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/fileutil"
)

const storeVersion = 1

// Store is a file-backed collection of server records. All mutations rewrite
// the file atomically, so a crash mid-save never leaves a torn file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

// New creates a store backed by the given JSON file. The file is created on
// first save; a missing file reads as an empty collection.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (storeFile, error) {
	const op = "store.Store.load"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storeFile{}, nil
		}
		return storeFile{}, errors.IOWrap(err, op, "failed to read server store")
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return storeFile{}, errors.IOWrap(err, op, "server store is corrupt")
	}
	return file, nil
}

func (s *Store) save(file storeFile) error {
	const op = "store.Store.save"

	file.Version = storeVersion
	file.UpdatedAt = time.Now().Unix()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return errors.IOWrap(err, op, "failed to encode server store")
	}
	if err := fileutil.EnsureDir(filepath.Dir(s.path)); err != nil {
		return errors.IOWrap(err, op, "failed to create store directory")
	}
	if err := fileutil.AtomicWriteFile(s.path, data, 0o644); err != nil {
		return errors.IOWrap(err, op, "failed to write server store")
	}
	return nil
}

// List returns all saved records.
func (s *Store) List() ([]ServerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	if file.Servers == nil {
		return []ServerRecord{}, nil
	}
	return file.Servers, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (ServerRecord, error) {
	const op = "store.Store.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return ServerRecord{}, err
	}
	for _, rec := range file.Servers {
		if rec.ID == id {
			return rec, nil
		}
	}
	return ServerRecord{}, errors.NotFoundf(op, "server %q not found", id)
}

// SaveAll replaces the whole collection.
func (s *Store) SaveAll(servers []ServerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(storeFile{Servers: servers}); err != nil {
		return err
	}
	s.logger.Info("server store replaced", "count", len(servers))
	return nil
}

// Add appends one record. Names must be unique; a missing id gets generated
// and zero timestamps are stamped with the current time.
func (s *Store) Add(server ServerRecord) (ServerRecord, error) {
	const op = "store.Store.Add"

	if err := server.Validate(); err != nil {
		return ServerRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return ServerRecord{}, err
	}
	for _, rec := range file.Servers {
		if rec.Name == server.Name {
			return ServerRecord{}, errors.Newf(errors.KindValidation,
				"server with name %q already exists", server.Name)
		}
	}

	now := time.Now().Unix()
	if server.ID == "" {
		server.ID = "mcp_" + uuid.NewString()
	}
	if server.CreatedAt == 0 {
		server.CreatedAt = now
	}
	server.UpdatedAt = now

	file.Servers = append(file.Servers, server)
	if err := s.save(file); err != nil {
		return ServerRecord{}, err
	}
	s.logger.Info("server added", "name", server.Name, "id", server.ID)
	return server, nil
}

// Update replaces the record with the same id.
func (s *Store) Update(server ServerRecord) (ServerRecord, error) {
	const op = "store.Store.Update"

	if err := server.Validate(); err != nil {
		return ServerRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return ServerRecord{}, err
	}

	for i, rec := range file.Servers {
		if rec.ID != server.ID {
			continue
		}
		server.UpdatedAt = time.Now().Unix()
		file.Servers[i] = server
		if err := s.save(file); err != nil {
			return ServerRecord{}, err
		}
		s.logger.Info("server updated", "name", server.Name, "id", server.ID)
		return server, nil
	}
	return ServerRecord{}, errors.NotFoundf(op, "server %q not found", server.ID)
}

// Delete removes the record with the given id.
func (s *Store) Delete(id string) error {
	const op = "store.Store.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	kept := file.Servers[:0]
	for _, rec := range file.Servers {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(file.Servers) {
		return errors.NotFoundf(op, "server %q not found", id)
	}
	file.Servers = kept

	if err := s.save(file); err != nil {
		return err
	}
	s.logger.Info("server deleted", "id", id)
	return nil
}

// Watch invokes onChange whenever the backing file is written or replaced,
// until the context is canceled. Atomic rename-based saves show up as create
// events, so both are watched.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	const op = "store.Store.Watch"

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.IOWrap(err, op, "failed to create file watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := fileutil.EnsureDir(dir); err != nil {
		return errors.IOWrap(err, op, "failed to create store directory")
	}
	if err := watcher.Add(dir); err != nil {
		return errors.IOWrap(err, op, "failed to watch store directory")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("store watcher error", "error", err)
		}
	}
}
