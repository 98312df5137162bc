// Package store owns the in-memory dataset and flushes it to a key-value backend
// after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/platform/kv"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// Storage keys, kept compatible with the browser application's localStorage.
const (
	KeyCompanies = "empresas"
	KeyRecords   = "fechamentos"
)

// Observer is notified after every persistence attempt.
type Observer interface {
	ObservePersist(err error)
}

// Store serializes access to the dataset so concurrent callers act as one.
type Store struct {
	mu       sync.Mutex
	backend  kv.Backend
	logger   *slog.Logger
	observer Observer
	data     Dataset
	saved    map[string][]byte
}

// Open loads the dataset from backend. Missing keys start empty.
func Open(ctx context.Context, backend kv.Backend, logger *slog.Logger) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store: backend required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	for _, problem := range s.data.Check() {
		logger.Warn("dataset inconsistency", slog.Any("error", problem))
	}
	logger.Info("dataset loaded", slog.Int("companies", len(s.data.Companies)), slog.Int("records", len(s.data.Records)))
	return s, nil
}

// load reads both keys and swaps them in only when both decode.
func (s *Store) load(ctx context.Context) error {
	var data Dataset
	saved := make(map[string][]byte, 2)
	if err := s.loadKey(ctx, KeyCompanies, &data.Companies, saved); err != nil {
		return err
	}
	if err := s.loadKey(ctx, KeyRecords, &data.Records, saved); err != nil {
		return err
	}
	s.data = data
	s.saved = saved
	s.ensureSlices()
	return nil
}

func (s *Store) loadKey(ctx context.Context, key string, dest any, saved map[string][]byte) error {
	raw, err := s.backend.Load(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	saved[key] = raw
	return nil
}

// Reload replaces the in-memory dataset with what the backend holds now.
// On error the current dataset is kept.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// SetObserver installs a persistence observer (metrics).
func (s *Store) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

// Logger exposes the store logger to collaborators sharing it.
func (s *Store) Logger() *slog.Logger { return s.logger }

// View runs fn with read access to the dataset. fn must not retain or mutate it.
func (s *Store) View(fn func(*Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// Snapshot returns a copy of the current dataset.
func (s *Store) Snapshot() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Update applies fn to the dataset. When fn reports a change the full dataset is
// persisted; any error from fn or from the backend restores the pre-call state.
func (s *Store) Update(ctx context.Context, fn func(*Dataset) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, fn)
}

// UpdateLatest reloads the dataset from the backend and applies fn under the
// same lock. Processes that keep a store open for long, such as the worker,
// use it so their write starts from what other writers saved.
func (s *Store) UpdateLatest(ctx context.Context, fn func(*Dataset) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return fmt.Errorf("store: %w: reload: %w", shared.ErrPersistence, err)
	}
	return s.update(ctx, fn)
}

func (s *Store) update(ctx context.Context, fn func(*Dataset) (bool, error)) error {
	snapshot := s.data.Clone()
	changed, err := fn(&s.data)
	if err != nil {
		s.data = snapshot
		return err
	}
	if !changed {
		return nil
	}
	s.ensureSlices()
	if err := s.persist(ctx); err != nil {
		s.data = snapshot
		s.logger.Error("persist dataset", slog.Any("error", err))
		return fmt.Errorf("store: %w: %w", shared.ErrPersistence, err)
	}
	return nil
}

func (s *Store) ensureSlices() {
	if s.data.Companies == nil {
		s.data.Companies = []domain.Company{}
	}
	if s.data.Records == nil {
		s.data.Records = []domain.ClosingRecord{}
	}
}

func (s *Store) persist(ctx context.Context) (err error) {
	defer func() {
		if s.observer != nil {
			s.observer.ObservePersist(err)
		}
	}()
	companies, err := json.Marshal(s.data.Companies)
	if err != nil {
		return fmt.Errorf("encode companies: %w", err)
	}
	records, err := json.Marshal(s.data.Records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if batch, ok := s.backend.(kv.BatchSaver); ok {
		if err := batch.SaveMany(ctx, map[string][]byte{KeyCompanies: companies, KeyRecords: records}); err != nil {
			return err
		}
	} else {
		if err := s.backend.Save(ctx, KeyCompanies, companies); err != nil {
			return err
		}
		if err := s.backend.Save(ctx, KeyRecords, records); err != nil {
			s.compensate(ctx, KeyCompanies)
			return err
		}
	}
	s.saved[KeyCompanies] = companies
	s.saved[KeyRecords] = records
	return nil
}

// compensate rewrites the last successfully saved value of key after a
// partial write so both collections describe the same state again.
func (s *Store) compensate(ctx context.Context, key string) {
	previous, ok := s.saved[key]
	if !ok {
		previous = []byte("[]")
	}
	if err := s.backend.Save(ctx, key, previous); err != nil {
		s.logger.Error("restore previous value after partial save", slog.String("key", key), slog.Any("error", err))
	}
}

// Replace swaps the whole dataset (import). Company codes are normalized first;
// the result must then pass Check.
func (s *Store) Replace(ctx context.Context, data Dataset) error {
	incoming := data.Clone()
	incoming.NormalizeCodes()
	if problems := incoming.Check(); len(problems) > 0 {
		return errors.Join(problems...)
	}
	return s.Update(ctx, func(ds *Dataset) (bool, error) {
		*ds = incoming
		return true, nil
	})
}
