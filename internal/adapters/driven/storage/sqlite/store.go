package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lexis/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/textnorm"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is the SQLite-backed corpus store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lexis/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexis", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.refreshTopicKeys(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// refreshTopicKeys recomputes topic_key for rows whose key was derived in SQL,
// which lowercases ASCII only.
func (s *Store) refreshTopicKeys() error {
	rows, err := s.db.Query("SELECT DISTINCT topic, topic_key FROM documents")
	if err != nil {
		return fmt.Errorf("reading topics: %w", err)
	}
	stale := make(map[string]string)
	for rows.Next() {
		var topic, key string
		if err := rows.Scan(&topic, &key); err != nil {
			rows.Close()
			return fmt.Errorf("scanning topic: %w", err)
		}
		if want := textnorm.TopicKey(topic); want != key {
			stale[topic] = want
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading topics: %w", err)
	}

	for topic, key := range stale {
		if _, err := s.db.Exec("UPDATE documents SET topic_key = ? WHERE topic = ?", key, topic); err != nil {
			return fmt.Errorf("updating topic key: %w", err)
		}
	}
	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, title, content, topic, embedding, embedding_model, active,
	metadata, processed_at, created_at, updated_at`

const sectionColumns = `s.id, s.document_id, s.title, s.content, s.position, s.embedding, s.embedding_model`

// ReplaceDocument upserts a document and swaps its sections in one transaction.
func (s *documentStore) ReplaceDocument(ctx context.Context, doc *domain.Document, sections []domain.Section) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if sec.DocumentID != doc.ID {
			return fmt.Errorf("%w: section %s belongs to %q, not %q",
				domain.ErrIntegrity, sec.ID, sec.DocumentID, doc.ID)
		}
		if seen[sec.ID] {
			return fmt.Errorf("%w: duplicate section %s", domain.ErrIntegrity, sec.ID)
		}
		seen[sec.ID] = true
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`, topic_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			topic = excluded.topic,
			topic_key = excluded.topic_key,
			embedding = excluded.embedding,
			embedding_model = excluded.embedding_model,
			active = excluded.active,
			metadata = excluded.metadata,
			processed_at = excluded.processed_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Content, doc.Topic, doc.Embedding, doc.EmbeddingModel, doc.Active,
		string(metadataJSON), nullTime(doc.ProcessedAt), doc.CreatedAt, doc.UpdatedAt,
		textnorm.TopicKey(doc.Topic))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing sections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sections (id, document_id, title, content, position, embedding, embedding_model)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx, sec.ID, sec.DocumentID, sec.Title, sec.Content,
			sec.Position, sec.Embedding, sec.EmbeddingModel); err != nil {
			return fmt.Errorf("saving section: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetSections retrieves all sections for a document ordered by position.
func (s *documentStore) GetSections(ctx context.Context, documentID string) ([]domain.Section, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+sectionColumns+`
		FROM sections s WHERE s.document_id = ?
		ORDER BY s.position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	return collectSections(rows)
}

// ListDocuments returns documents matching the filter ordered by title.
func (s *documentStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	where, args := filterClause(filter, "")
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents`+where+` ORDER BY title, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ListSections returns sections of matching documents ordered by document
// title then position.
func (s *documentStore) ListSections(ctx context.Context, filter domain.DocumentFilter) ([]domain.Section, error) {
	where, args := filterClause(filter, "d.")
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+sectionColumns+`
		FROM sections s JOIN documents d ON d.id = s.document_id`+where+`
		ORDER BY d.title, d.id, s.position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	return collectSections(rows)
}

// UpdateDocumentEmbedding replaces the stored vector of a document.
func (s *documentStore) UpdateDocumentEmbedding(ctx context.Context, id, vector, model string) error {
	return s.execOne(ctx, "updating document embedding", `
		UPDATE documents SET embedding = ?, embedding_model = ?, updated_at = ? WHERE id = ?
	`, vector, model, time.Now(), id)
}

// UpdateSectionEmbedding replaces the stored vector of a section.
func (s *documentStore) UpdateSectionEmbedding(ctx context.Context, id, vector, model string) error {
	return s.execOne(ctx, "updating section embedding", `
		UPDATE sections SET embedding = ?, embedding_model = ? WHERE id = ?
	`, vector, model, id)
}

// SetActive marks a document as eligible or ineligible for retrieval.
func (s *documentStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.execOne(ctx, "updating document",
		"UPDATE documents SET active = ?, updated_at = ? WHERE id = ?", active, time.Now(), id)
}

// DeleteDocument removes a document. Sections cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	return s.execOne(ctx, "deleting document", "DELETE FROM documents WHERE id = ?", id)
}

// execOne runs a statement that must affect exactly one row.
func (s *documentStore) execOne(ctx context.Context, action, query string, args ...any) error {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// filterClause renders a WHERE clause for the filter. prefix qualifies the
// documents table in joins.
func filterClause(filter domain.DocumentFilter, prefix string) (string, []any) {
	var conds []string
	var args []any
	if filter.ActiveOnly {
		conds = append(conds, prefix+"active = 1")
	}
	if key := textnorm.TopicKey(filter.Topic); key != "" {
		conds = append(conds, prefix+"topic_key = ?")
		args = append(args, key)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document row. sql.ErrNoRows is returned unwrapped.
func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string
	var processedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Topic, &doc.Embedding,
		&doc.EmbeddingModel, &doc.Active, &metadataJSON, &processedAt,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}

	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// collectSections scans and closes rows.
func collectSections(rows *sql.Rows) ([]domain.Section, error) {
	defer rows.Close()

	var sections []domain.Section //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.Content,
			&sec.Position, &sec.Embedding, &sec.EmbeddingModel); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}

	return sections, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
