// Package store keeps the résumé document in a single JSON slot on a
// filesystem and notifies subscribers when it changes.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/infrastructure/migration"
	"github.com/junsantilla/cvalley/internal/metrics"
	"github.com/junsantilla/cvalley/internal/model"
)

// DefaultKey is the slot the document lives in.
const DefaultKey = "data"

// ErrStorageUnavailable marks a read or write the filesystem refused. The
// store logs it and keeps working from memory.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Filesystem is the part of zfilesystem.ReadWriteFileFS the store needs.
type Filesystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
}

// Unsubscribe removes a subscription. Calling it twice is harmless.
type Unsubscribe func()

type subscriber struct {
	id uint64
	fn func()
}

// Store is the persisted document. Get after Set returns what was set;
// subscribers run after every change, outside the store's lock.
type Store struct {
	fs      Filesystem
	key     string
	log     *zap.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	doc       model.ResumeDocument
	available bool

	subMu   sync.Mutex
	subs    []subscriber
	nextSub uint64
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Open loads the slot from fsys. A missing slot yields the empty document; an
// unreadable one yields the empty document and marks storage unavailable.
func Open(fsys Filesystem, log *zap.Logger, opts ...Option) *Store {
	s := &Store{fs: fsys, key: DefaultKey, log: log, available: true}
	for _, o := range opts {
		o(s)
	}
	doc, state := s.load()
	if state == loadCorrupt {
		s.backup()
	}
	s.doc = doc
	s.available = state != loadUnavailable
	return s
}

// FileName is the slot's file name inside the storage directory.
func (s *Store) FileName() string { return s.key + ".json" }

// BackupName is where an unusable slot is copied before the store starts
// over from the empty document.
func (s *Store) BackupName() string { return s.FileName() + ".bak" }

// backup copies the current slot bytes aside so the first write over an
// unusable slot does not destroy it.
func (s *Store) backup() {
	b, err := s.fs.ReadFile(s.FileName())
	if err != nil {
		return
	}
	if err := s.fs.WriteFile(s.BackupName(), b, 0o600); err != nil {
		s.log.Warn("backing up unusable stored document failed",
			zap.String("slot", s.key), zap.Error(fmt.Errorf("%w: %v", ErrStorageUnavailable, err)))
		return
	}
	s.log.Warn("unusable stored document kept aside", zap.String("slot", s.key), zap.String("backup", s.BackupName()))
}

// Available reports whether the last read or write reached the filesystem.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Get returns a copy of the current document.
func (s *Store) Get() model.ResumeDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Set replaces the document and writes it through. A failed write keeps the
// new document in memory.
func (s *Store) Set(doc model.ResumeDocument) {
	s.Update(func(model.ResumeDocument) model.ResumeDocument { return doc })
}

// Update derives the next document from the current one under the store's
// lock, so concurrent updates never lose each other's fields.
func (s *Store) Update(fn func(prev model.ResumeDocument) model.ResumeDocument) {
	s.mu.Lock()
	next := fn(s.doc.Clone()).Clone()
	next.Normalize()
	s.doc = next
	s.available = s.write(next)
	s.mu.Unlock()

	s.notify()
}

// Clear erases the slot and resets the document to the empty default.
func (s *Store) Clear() {
	s.mu.Lock()
	s.doc = model.Empty()
	err := s.fs.Remove(s.FileName())
	switch {
	case err == nil, errors.Is(err, fs.ErrNotExist):
		s.available = true
	default:
		s.log.Warn("removing stored document failed",
			zap.String("slot", s.key), zap.Error(fmt.Errorf("%w: %v", ErrStorageUnavailable, err)))
		s.available = s.write(s.doc)
	}
	s.mu.Unlock()

	s.notify()
}

// Reload re-reads the slot, picking up writes from other processes sharing
// the directory. Subscribers run only when the document changed.
func (s *Store) Reload() {
	s.mu.Lock()
	doc, state := s.load()
	switch state {
	case loadUnavailable:
		s.available = false
		s.mu.Unlock()
		return
	case loadCorrupt:
		// likely a half-written file; the next event will carry the full one
		s.mu.Unlock()
		return
	}
	changed := !sameDocument(s.doc, doc)
	s.doc = doc
	s.available = true
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Subscribe registers fn to run after every change.
func (s *Store) Subscribe(fn func()) Unsubscribe {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn()
	}
}

type loadState int

const (
	loadOK loadState = iota
	loadCorrupt
	loadUnavailable
)

// load reads and decodes the slot. A missing slot is the empty document.
// Unreadable storage and unusable content both yield the empty document,
// told apart by the returned state.
func (s *Store) load() (model.ResumeDocument, loadState) {
	b, err := s.fs.ReadFile(s.FileName())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Empty(), loadOK
		}
		s.log.Warn("reading stored document failed, using in-memory default",
			zap.String("slot", s.key), zap.Error(fmt.Errorf("%w: %v", ErrStorageUnavailable, err)))
		return model.Empty(), loadUnavailable
	}

	doc, migrated, err := decode(b, s.log)
	if err != nil {
		s.log.Warn("stored document is unusable, starting empty", zap.String("slot", s.key), zap.Error(err))
		return model.Empty(), loadCorrupt
	}
	if migrated {
		s.write(doc)
	}
	return doc, loadOK
}

func (s *Store) write(doc model.ResumeDocument) bool {
	b, err := json.Marshal(doc)
	if err != nil {
		s.log.Error("encoding document failed", zap.Error(err))
		s.metrics.StoreWrite("error")
		return false
	}
	if err := s.fs.WriteFile(s.FileName(), b, 0o600); err != nil {
		s.log.Warn("writing document failed, keeping it in memory only",
			zap.String("slot", s.key), zap.Error(fmt.Errorf("%w: %v", ErrStorageUnavailable, err)))
		s.metrics.StoreWrite("degraded")
		return false
	}
	s.metrics.StoreWrite("ok")
	return true
}

// Decode migrates a stored payload to the current schema and validates it
// without touching any storage.
func Decode(b []byte, log *zap.Logger) (model.ResumeDocument, error) {
	doc, _, err := decode(b, log)
	return doc, err
}

// decode also reports whether a migration ran, so the caller can write the
// upgraded form back.
func decode(b []byte, log *zap.Logger) (model.ResumeDocument, bool, error) {
	var raw migration.Document
	if err := json.Unmarshal(b, &raw); err != nil {
		return model.ResumeDocument{}, false, fmt.Errorf("decode stored document: %w", err)
	}
	if raw == nil {
		return model.ResumeDocument{}, false, errors.New("decode stored document: null")
	}
	migrated := migration.Version(raw) != model.SchemaVersion
	if err := migration.RunMigrations(raw, log); err != nil {
		return model.ResumeDocument{}, false, err
	}
	if migrated {
		var err error
		if b, err = json.Marshal(raw); err != nil {
			return model.ResumeDocument{}, false, err
		}
	}

	var doc model.ResumeDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.ResumeDocument{}, false, fmt.Errorf("decode stored document: %w", err)
	}
	doc.Normalize()
	if err := model.Validate(doc); err != nil {
		return model.ResumeDocument{}, false, err
	}
	return doc, migrated, nil
}

func sameDocument(a, b model.ResumeDocument) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && bytes.Equal(ab, bb)
}
