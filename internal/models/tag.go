package models

import "time"

// Scope is the unit within which tags may be merged. A tag never merges
// across categories or across books.
type Scope struct {
	CategoryID string `json:"category_id"`
	BookID     string `json:"book_id"`
}

// String returns a stable key for the scope.
func (s Scope) String() string {
	return s.BookID + "/" + s.CategoryID
}

// Tag is a persisted entity value attached to content within a scope.
type Tag struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id"`
	BookID     string    `json:"book_id"`
	ContentIDs []string  `json:"content_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Scope returns the merge scope of the tag.
func (t *Tag) Scope() Scope {
	return Scope{CategoryID: t.CategoryID, BookID: t.BookID}
}

// Content is a page or fragment of a book that tags attach to.
type Content struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

// TagStats holds summary statistics about persisted tags.
type TagStats struct {
	TotalTags    int64            `json:"total_tags"`
	TotalContent int64            `json:"total_content"`
	ByBook       map[string]int64 `json:"by_book"`
}
