// internal/adapter/storage/memory_store.go

package storage

import (
	"context"
	"sort"
	"sync"

	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/mention"
)

// MemoryStore keeps mentions and snapshots in process memory.
// Used for local development and tests; contents are lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	mentions  []mention.Mention
	snapshots []analytics.Snapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// SaveMention appends a mention
func (s *MemoryStore) SaveMention(ctx context.Context, m mention.Mention) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mentions = append(s.mentions, m)
	return nil
}

// RecentMentions returns mentions newest first, optionally for one brand
func (s *MemoryStore) RecentMentions(ctx context.Context, filter mention.Filter) ([]mention.Mention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []mention.Mention
	for _, m := range s.mentions {
		if filter.Brand != "" && m.Brand != filter.Brand {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return limit(out, filter.Limit), nil
}

// SaveSnapshot appends a snapshot
func (s *MemoryStore) SaveSnapshot(ctx context.Context, snap analytics.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snap)
	return nil
}

// LatestSnapshot returns the most recent snapshot of a brand
func (s *MemoryStore) LatestSnapshot(ctx context.Context, brand string) (*analytics.Snapshot, error) {
	snaps, err := s.RecentSnapshots(ctx, brand, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, analytics.ErrNotFound
	}
	return &snaps[0], nil
}

// RecentSnapshots returns up to limit snapshots of a brand, newest first
func (s *MemoryStore) RecentSnapshots(ctx context.Context, brand string, n int) ([]analytics.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []analytics.Snapshot
	for _, snap := range s.snapshots {
		if snap.Brand == brand {
			out = append(out, snap)
		}
	}

	// appended in time order; a stable sort keeps insertion order on ties
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return limit(out, n), nil
}

// Brands returns the distinct brands that have snapshots
func (s *MemoryStore) Brands(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, snap := range s.snapshots {
		if _, ok := seen[snap.Brand]; ok {
			continue
		}
		seen[snap.Brand] = struct{}{}
		out = append(out, snap.Brand)
	}
	sort.Strings(out)
	return out, nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
