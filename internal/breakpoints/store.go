// Package breakpoints maintains the set of active breakpoints, independent
// of any running session.
//
// The store is the single source of truth: the UI and the auto-breakpoint
// advisor both mutate it through the same operations, and the session
// controller observes its changes to reconcile against the live backend.
// Breakpoints are deduplicated by (fileId, line), capped in count, and
// persisted to local storage on every mutation.
package breakpoints

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/polyrun/debug-client/internal/errors"
	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/pkg/types"
)

// StorageKey is the fixed key the breakpoint list is persisted under.
const StorageKey = "polyrun.breakpoints"

// DefaultCapacity bounds the number of breakpoints held at once.
const DefaultCapacity = 100

// persisted is the durable form of one breakpoint.
type persisted struct {
	FileID    string `json:"fileId"`
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
}

// Storage is the durable backend the store persists to.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// Store holds the active breakpoint set.
type Store struct {
	mu       sync.Mutex
	items    []types.Breakpoint
	index    *paths.Index
	capacity int
	storage  Storage
	logger   *slog.Logger
	onChange func()
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the maximum breakpoint count.
func WithCapacity(n int) Option {
	return func(s *Store) { s.capacity = n }
}

// WithStorage attaches a durable backend. Without one, the store is
// memory-only.
func WithStorage(st Storage) Option {
	return func(s *Store) { s.storage = st }
}

// NewStore creates an empty store resolving files through idx.
func NewStore(idx *paths.Index, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		index:    idx,
		capacity: DefaultCapacity,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIndex replaces the path index after the file set changes. Existing
// breakpoints are not revalidated; revalidation happens on Load.
func (s *Store) SetIndex(idx *paths.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
}

// OnChange registers a callback invoked after every successful mutation.
// The session controller uses it to trigger breakpoint reconciliation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Add appends a breakpoint for (fileID, line). It returns an error if the
// file does not resolve or the store is full, and added=false (no error)
// when the pair is already present.
func (s *Store) Add(fileID string, line int, condition string) (types.Breakpoint, bool, error) {
	s.mu.Lock()
	fd, ok := s.index.ByID(fileID)
	if !ok {
		s.mu.Unlock()
		return types.Breakpoint{}, false, errors.UnknownFile(fileID)
	}
	bp := types.NewBreakpoint(fd, line, condition)
	for _, existing := range s.items {
		if existing.ID == bp.ID {
			s.mu.Unlock()
			return existing, false, nil
		}
	}
	if len(s.items) >= s.capacity {
		s.mu.Unlock()
		return types.Breakpoint{}, false, errors.BreakpointLimitReached(s.capacity)
	}
	s.items = append(s.items, bp)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return bp, true, nil
}

// Remove deletes the breakpoint with the given id, if present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	removed := s.removeLocked(id)
	if removed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return removed
}

// RemoveAt deletes the breakpoint for a (fileId, line) pair, if present.
func (s *Store) RemoveAt(fileID string, line int) bool {
	return s.Remove(types.BreakpointID(fileID, line))
}

// Toggle removes the breakpoint at (fileID, line) if present, otherwise
// adds one. The whole operation holds the store lock, so concurrent toggles
// on the same key cannot race into a duplicate insert.
func (s *Store) Toggle(fileID string, line int) (types.Breakpoint, bool, error) {
	s.mu.Lock()
	id := types.BreakpointID(fileID, line)
	if s.removeLocked(id) {
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return types.Breakpoint{}, false, nil
	}

	fd, ok := s.index.ByID(fileID)
	if !ok {
		s.mu.Unlock()
		return types.Breakpoint{}, false, errors.UnknownFile(fileID)
	}
	if len(s.items) >= s.capacity {
		s.mu.Unlock()
		return types.Breakpoint{}, false, errors.BreakpointLimitReached(s.capacity)
	}
	bp := types.NewBreakpoint(fd, line, "")
	s.items = append(s.items, bp)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return bp, true, nil
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// List returns the breakpoints in insertion order.
func (s *Store) List() []types.Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Breakpoint, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the current breakpoint count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Canonical returns the ephemeral backend-facing view of the current set,
// recomputed from the live items on every call.
func (s *Store) Canonical() []types.CanonicalBreakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.CanonicalBreakpoint, 0, len(s.items))
	for _, bp := range s.items {
		out = append(out, types.CanonicalBreakpoint{File: bp.FilePath, Line: bp.Line})
	}
	return out
}

// Load rehydrates the store from durable storage. Entries whose fileId no
// longer resolves are dropped silently; that is expected when files changed
// since the last session. Entries beyond capacity are dropped oldest-first
// admitted last, i.e. loading stops once the cap is hit.
func (s *Store) Load() error {
	if s.storage == nil {
		return nil
	}
	raw, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		return err
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	var records []persisted
	if err := json.Unmarshal(raw, &records); err != nil {
		// Corrupt state is discarded rather than wedging startup.
		s.logger.Warn("discarding unreadable breakpoint state", "error", err)
		return nil
	}

	s.mu.Lock()
	s.items = nil
	for _, rec := range records {
		if len(s.items) >= s.capacity {
			break
		}
		fd, ok := s.index.ByID(rec.FileID)
		if !ok {
			continue
		}
		bp := types.NewBreakpoint(fd, rec.Line, rec.Condition)
		if s.containsLocked(bp.ID) {
			continue
		}
		s.items = append(s.items, bp)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) removeLocked(id string) bool {
	for i, bp := range s.items {
		if bp.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) containsLocked(id string) bool {
	for _, bp := range s.items {
		if bp.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	records := make([]persisted, 0, len(s.items))
	for _, bp := range s.items {
		records = append(records, persisted{FileID: bp.FileID, Line: bp.Line, Condition: bp.Condition})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("failed to encode breakpoint state", "error", err)
		return
	}
	if err := s.storage.Put(StorageKey, raw); err != nil {
		s.logger.Warn("failed to persist breakpoint state", "error", err)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
