package mapping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
)

// Store is a cached, direction-aware view over one mapping namespace.
// The in-memory cache is process-local; on a miss the store re-verifies
// against persistent storage, so staleness across processes only costs
// an extra query. Concurrent writers racing to establish the same
// mapping are resolved by the first-write-wins check in Set, not by
// locking.
type Store struct {
	repo     Repository
	model    string
	dir      Direction
	resolver Resolver

	mu    sync.RWMutex
	cache map[string]string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// InReverse keys lookups by the local (target) ID instead of the remote ID.
func InReverse() StoreOption {
	return func(s *Store) { s.dir = Reverse }
}

// WithResolver supplies the create-on-miss callback used by Synchronize.
func WithResolver(r Resolver) StoreOption {
	return func(s *Store) { s.resolver = r }
}

// NewStore creates a store over the given namespace.
func NewStore(repo Repository, model string, opts ...StoreOption) *Store {
	s := &Store{
		repo:  repo,
		model: model,
		dir:   Forward,
		cache: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the namespace this store operates on.
func (s *Store) Model() string {
	return s.model
}

// Prefetch loads the entire namespace into the in-memory cache.
func (s *Store) Prefetch(ctx context.Context) error {
	records, err := s.repo.ListByModel(ctx, s.model)
	if err != nil {
		return fmt.Errorf("prefetch %s mappings: %w", s.model, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.cache[normalizeID(r.Key(s.dir))] = normalizeID(r.Counterpart(s.dir))
	}
	return nil
}

// Get returns the counterpart ID for the given key, or ok=false when no
// mapping exists. Not-found is a clean empty result, never an error.
func (s *Store) Get(ctx context.Context, id string) (string, bool, error) {
	key := normalizeID(id)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, true, nil
	}

	counterpart, err := s.repo.Find(ctx, s.model, s.dir, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find %s mapping for %q: %w", s.model, key, err)
	}

	counterpart = normalizeID(counterpart)
	s.mu.Lock()
	s.cache[key] = counterpart
	s.mu.Unlock()
	return counterpart, true, nil
}

// Set records a mapping between a remote and a local ID. Unless skipCheck
// is set it first looks up the key in the store's direction and leaves an
// existing mapping intact (first-write-wins), which prevents duplicate
// rows when two code paths race to establish the same mapping.
func (s *Store) Set(ctx context.Context, sourceID, targetID string, skipCheck bool) error {
	sourceID = normalizeID(sourceID)
	targetID = normalizeID(targetID)

	key, counterpart := sourceID, targetID
	if s.dir == Reverse {
		key, counterpart = targetID, sourceID
	}

	if !skipCheck {
		_, exists, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	if err := s.repo.Insert(ctx, s.model, sourceID, targetID); err != nil {
		return fmt.Errorf("insert %s mapping %q->%q: %w", s.model, sourceID, targetID, err)
	}

	s.mu.Lock()
	s.cache[key] = counterpart
	s.mu.Unlock()
	return nil
}

// Synchronize is the idempotent get-or-create primitive: look up the key;
// on miss, invoke the resolver; when the resolver produces a counterpart,
// persist it with the uniqueness check skipped. A resolver that returns
// an empty ID leaves the key unmapped (ok=false, no error).
func (s *Store) Synchronize(ctx context.Context, id string, hint any) (string, bool, error) {
	counterpart, ok, err := s.Get(ctx, id)
	if err != nil || ok {
		return counterpart, ok, err
	}
	if s.resolver == nil {
		return "", false, nil
	}

	key := normalizeID(id)
	counterpart, err = s.resolver(ctx, key, hint)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s %q: %w", s.model, key, err)
	}
	if counterpart == "" {
		return "", false, nil
	}
	counterpart = normalizeID(counterpart)

	sourceID, targetID := key, counterpart
	if s.dir == Reverse {
		sourceID, targetID = counterpart, key
	}
	if err := s.Set(ctx, sourceID, targetID, true); err != nil {
		return "", false, err
	}
	return counterpart, true, nil
}

// Delete removes the mapping keyed by the given ID from both the cache
// and persistent storage. When override names a direction different from
// the store's configured one, the counterpart ID is resolved first so
// the correct cache slot is invalidated.
func (s *Store) Delete(ctx context.Context, id string, override *Direction) error {
	key := normalizeID(id)
	dir := s.dir
	if override != nil {
		dir = *override
	}

	cacheKey := key
	if dir != s.dir {
		counterpart, err := s.repo.Find(ctx, s.model, dir, key)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("find %s counterpart for %q: %w", s.model, key, err)
		}
		cacheKey = normalizeID(counterpart)
	}

	if err := s.repo.Delete(ctx, s.model, dir, key); err != nil {
		return fmt.Errorf("delete %s mapping %q: %w", s.model, key, err)
	}

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()
	return nil
}

// normalizeID canonicalizes numeric-looking IDs so "007" and "7" hit the
// same cache slot and database row. Non-numeric IDs pass through as-is.
func normalizeID(id string) string {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return id
}
