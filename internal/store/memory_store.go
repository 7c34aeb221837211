package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// MemoryStore is an in-memory implementation of TagStore used by tests and
// by the CLI when no graph database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	tags    map[string]*models.Tag
	content map[string]models.Content
	links   map[string]map[string]struct{} // tag ID -> content IDs
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tags:    make(map[string]*models.Tag),
		content: make(map[string]models.Content),
		links:   make(map[string]map[string]struct{}),
	}
}

// EnsureSchema is a no-op for the in-memory store.
func (m *MemoryStore) EnsureSchema(_ context.Context) error {
	return nil
}

func (m *MemoryStore) UpsertContent(_ context.Context, content models.Content) error {
	if content.ID == "" {
		return fmt.Errorf("content id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[content.ID] = content
	return nil
}

func (m *MemoryStore) CreateTag(_ context.Context, tag models.Tag) error {
	if tag.ID == "" {
		return fmt.Errorf("tag id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tags[tag.ID]; exists {
		return fmt.Errorf("tag %s already exists", tag.ID)
	}
	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	if tag.UpdatedAt.IsZero() {
		tag.UpdatedAt = tag.CreatedAt
	}
	ids := tag.ContentIDs
	tag.ContentIDs = nil
	m.tags[tag.ID] = &tag
	m.links[tag.ID] = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.links[tag.ID][id] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) GetTag(_ context.Context, id string) (*models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tags[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := m.snapshot(t)
	return &out, nil
}

func (m *MemoryStore) ListTags(_ context.Context, filter TagFilter) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := strings.ToLower(filter.Name)
	var out []models.Tag
	for _, t := range m.tags {
		if filter.BookID != "" && t.BookID != filter.BookID {
			continue
		}
		if filter.CategoryID != "" && t.CategoryID != filter.CategoryID {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(t.Name), name) {
			continue
		}
		out = append(out, m.snapshot(t))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) LinkContent(_ context.Context, tagID, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[tagID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tagID)
	}
	m.links[tagID][contentID] = struct{}{}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ReassignContent(_ context.Context, fromID, toID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fromID == toID {
		return 0, nil
	}
	from, ok := m.links[fromID]
	if !ok {
		return 0, nil
	}
	to, ok := m.tags[toID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, toID)
	}
	moved := 0
	for cid := range from {
		m.links[toID][cid] = struct{}{}
		delete(from, cid)
		moved++
	}
	if moved > 0 {
		to.UpdatedAt = time.Now().UTC()
	}
	return moved, nil
}

func (m *MemoryStore) DeleteTag(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.tags, id)
	delete(m.links, id)
	return nil
}

func (m *MemoryStore) Stats(_ context.Context) (*models.TagStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.TagStats{
		TotalTags:    int64(len(m.tags)),
		TotalContent: int64(len(m.content)),
		ByBook:       make(map[string]int64),
	}
	for _, t := range m.tags {
		stats.ByBook[t.BookID]++
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// snapshot copies t with its content IDs so callers cannot mutate stored data.
// Callers must hold mu.
func (m *MemoryStore) snapshot(t *models.Tag) models.Tag {
	out := *t
	ids := make([]string, 0, len(m.links[t.ID]))
	for id := range m.links[t.ID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.ContentIDs = ids
	return out
}
