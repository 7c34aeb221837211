package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

const (
	neo4jConnectTimeout = 10 * time.Second
	neo4jReadTimeout    = 10 * time.Second
	neo4jWriteTimeout   = 30 * time.Second
)

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// Neo4jStore implements TagStore on a Neo4j graph:
//
//	(:Content {id, book_id, page, text})-[:TAGGED_WITH]->(:Tag {id, name, category_id, book_id, created_at, updated_at})
//
// Timestamps are stored as Unix milliseconds.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(uri, username, password, database string, logger *slog.Logger) (*Neo4jStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating Neo4j driver for %s: %w", uri, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), neo4jConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying Neo4j connection at %s: %w", uri, err)
	}

	logger.Info("connected to Neo4j", "uri", uri, "database", database)

	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	rctx, cancel := withTimeout(ctx, neo4jReadTimeout)
	defer cancel()
	return neo4j.ExecuteQuery(rctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	wctx, cancel := withTimeout(ctx, neo4jWriteTimeout)
	defer cancel()
	return neo4j.ExecuteQuery(wctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithWritersRouting(),
	)
}

var schemaStatements = []string{
	"CREATE CONSTRAINT tag_id IF NOT EXISTS FOR (t:Tag) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT content_id IF NOT EXISTS FOR (c:Content) REQUIRE c.id IS UNIQUE",
	"CREATE INDEX tag_scope IF NOT EXISTS FOR (t:Tag) ON (t.book_id, t.category_id)",
}

func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensuring schema (%s): %w", stmt, err)
		}
	}
	s.logger.Info("Neo4j schema ready")
	return nil
}

func (s *Neo4jStore) UpsertContent(ctx context.Context, content models.Content) error {
	const query = `MERGE (c:Content {id: $id})
SET c.book_id = $book_id, c.page = $page, c.text = $text`
	_, err := s.write(ctx, query, map[string]any{
		"id":      content.ID,
		"book_id": content.BookID,
		"page":    int64(content.Page),
		"text":    content.Text,
	})
	if err != nil {
		return fmt.Errorf("upserting content %s: %w", content.ID, err)
	}
	return nil
}

func (s *Neo4jStore) CreateTag(ctx context.Context, tag models.Tag) error {
	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	if tag.UpdatedAt.IsZero() {
		tag.UpdatedAt = tag.CreatedAt
	}
	const query = `CREATE (t:Tag {id: $id, name: $name, category_id: $category_id, book_id: $book_id,
  created_at: $created_at, updated_at: $updated_at})
WITH t
UNWIND $content_ids AS cid
MATCH (c:Content {id: cid})
MERGE (c)-[:TAGGED_WITH]->(t)`
	contentIDs := tag.ContentIDs
	if contentIDs == nil {
		contentIDs = []string{}
	}
	_, err := s.write(ctx, query, map[string]any{
		"id":          tag.ID,
		"name":        tag.Name,
		"category_id": tag.CategoryID,
		"book_id":     tag.BookID,
		"created_at":  tag.CreatedAt.UnixMilli(),
		"updated_at":  tag.UpdatedAt.UnixMilli(),
		"content_ids": contentIDs,
	})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", tag.ID, err)
	}
	return nil
}

const tagReturn = `OPTIONAL MATCH (c:Content)-[:TAGGED_WITH]->(t)
WITH t, collect(c.id) AS content_ids
RETURN t.id AS id, t.name AS name, t.category_id AS category_id, t.book_id AS book_id,
  t.created_at AS created_at, t.updated_at AS updated_at, content_ids
ORDER BY t.created_at ASC, t.id ASC`

func (s *Neo4jStore) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	res, err := s.read(ctx, "MATCH (t:Tag {id: $id})\n"+tagReturn, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("getting tag %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	tag := recordToTag(res.Records[0])
	return &tag, nil
}

func (s *Neo4jStore) ListTags(ctx context.Context, filter TagFilter) ([]models.Tag, error) {
	var where []string
	params := map[string]any{}
	if filter.BookID != "" {
		where = append(where, "t.book_id = $book_id")
		params["book_id"] = filter.BookID
	}
	if filter.CategoryID != "" {
		where = append(where, "t.category_id = $category_id")
		params["category_id"] = filter.CategoryID
	}
	if filter.Name != "" {
		where = append(where, "toLower(t.name) CONTAINS toLower($name)")
		params["name"] = filter.Name
	}

	query := "MATCH (t:Tag)\n"
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += tagReturn

	res, err := s.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	tags := make([]models.Tag, 0, len(res.Records))
	for _, rec := range res.Records {
		tags = append(tags, recordToTag(rec))
	}
	return tags, nil
}

func (s *Neo4jStore) LinkContent(ctx context.Context, tagID, contentID string) error {
	const query = `MATCH (t:Tag {id: $tag_id})
MERGE (c:Content {id: $content_id})
MERGE (c)-[:TAGGED_WITH]->(t)
SET t.updated_at = $now
RETURN t.id AS id`
	res, err := s.write(ctx, query, map[string]any{
		"tag_id":     tagID,
		"content_id": contentID,
		"now":        time.Now().UTC().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("linking content %s to tag %s: %w", contentID, tagID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, tagID)
	}
	return nil
}

func (s *Neo4jStore) ReassignContent(ctx context.Context, fromID, toID string) (int, error) {
	if fromID == toID {
		return 0, nil
	}
	const query = `MATCH (a:Tag {id: $to_id})
OPTIONAL MATCH (c:Content)-[r:TAGGED_WITH]->(:Tag {id: $from_id})
WITH a, collect(c) AS contents, collect(r) AS rels
FOREACH (c IN contents | MERGE (c)-[:TAGGED_WITH]->(a))
FOREACH (r IN rels | DELETE r)
SET a.updated_at = CASE WHEN size(rels) > 0 THEN $now ELSE a.updated_at END
RETURN size(rels) AS moved`
	res, err := s.write(ctx, query, map[string]any{
		"from_id": fromID,
		"to_id":   toID,
		"now":     time.Now().UTC().UnixMilli(),
	})
	if err != nil {
		return 0, fmt.Errorf("reassigning content from %s to %s: %w", fromID, toID, err)
	}
	if len(res.Records) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, toID)
	}
	return int(asInt64(res.Records[0], "moved")), nil
}

func (s *Neo4jStore) DeleteTag(ctx context.Context, id string) error {
	const query = `MATCH (t:Tag {id: $id})
DETACH DELETE t
RETURN count(*) AS deleted`
	res, err := s.write(ctx, query, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	if len(res.Records) == 0 || asInt64(res.Records[0], "deleted") == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Neo4jStore) Stats(ctx context.Context) (*models.TagStats, error) {
	stats := &models.TagStats{ByBook: make(map[string]int64)}

	res, err := s.read(ctx, "MATCH (t:Tag) RETURN t.book_id AS book_id, count(t) AS n", nil)
	if err != nil {
		return nil, fmt.Errorf("counting tags: %w", err)
	}
	for _, rec := range res.Records {
		n := asInt64(rec, "n")
		stats.ByBook[asString(rec, "book_id")] = n
		stats.TotalTags += n
	}

	res, err = s.read(ctx, "MATCH (c:Content) RETURN count(c) AS n", nil)
	if err != nil {
		return nil, fmt.Errorf("counting content: %w", err)
	}
	if len(res.Records) > 0 {
		stats.TotalContent = asInt64(res.Records[0], "n")
	}
	return stats, nil
}

func (s *Neo4jStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), neo4jConnectTimeout)
	defer cancel()
	return s.driver.Close(ctx)
}

// --- record helpers ---

func recordToTag(rec *neo4j.Record) models.Tag {
	tag := models.Tag{
		ID:         asString(rec, "id"),
		Name:       asString(rec, "name"),
		CategoryID: asString(rec, "category_id"),
		BookID:     asString(rec, "book_id"),
		CreatedAt:  time.UnixMilli(asInt64(rec, "created_at")).UTC(),
		UpdatedAt:  time.UnixMilli(asInt64(rec, "updated_at")).UTC(),
	}
	if raw, ok := rec.Get("content_ids"); ok {
		if list, ok := raw.([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					tag.ContentIDs = append(tag.ContentIDs, s)
				}
			}
		}
	}
	return tag
}

func asString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func asInt64(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
