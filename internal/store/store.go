package store

import (
	"context"
	"errors"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// ErrNotFound is returned by GetTag and DeleteTag when the requested tag does not exist.
var ErrNotFound = errors.New("tag not found")

// TagStore defines the interface for tag and content persistence.
type TagStore interface {
	// EnsureSchema creates constraints and indexes if they don't exist.
	EnsureSchema(ctx context.Context) error

	// UpsertContent inserts or updates a content record.
	UpsertContent(ctx context.Context, content models.Content) error

	// CreateTag inserts a new tag.
	CreateTag(ctx context.Context, tag models.Tag) error

	// GetTag retrieves a single tag by ID, including its content IDs.
	GetTag(ctx context.Context, id string) (*models.Tag, error)

	// ListTags returns tags matching the filter, oldest first.
	ListTags(ctx context.Context, filter TagFilter) ([]models.Tag, error)

	// LinkContent associates content with a tag. Linking twice is a no-op.
	LinkContent(ctx context.Context, tagID, contentID string) error

	// ReassignContent moves every content association of fromID onto toID
	// and returns how many associations were moved.
	ReassignContent(ctx context.Context, fromID, toID string) (int, error)

	// DeleteTag removes a tag and any associations it still holds.
	DeleteTag(ctx context.Context, id string) error

	// Stats returns tag statistics.
	Stats(ctx context.Context) (*models.TagStats, error)

	// Close cleans up resources.
	Close() error
}

// TagFilter narrows ListTags. Empty fields match everything.
type TagFilter struct {
	BookID     string `json:"book_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	// Name matches tags whose name contains it, case-insensitively.
	Name string `json:"name,omitempty"`
}

// ScopeFilter returns a filter that selects exactly one merge scope.
func ScopeFilter(s models.Scope) TagFilter {
	return TagFilter{BookID: s.BookID, CategoryID: s.CategoryID}
}
