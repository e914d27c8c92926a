package repository

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lib/pq"

	"notus/internal/document/model"
	"notus/pkg/logger"
)

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(ownerID int64, title, content string) (int64, error) {
	var docID int64
	err := r.DB.QueryRow(`
		INSERT INTO documents (owner_id, title, content, tags, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, '{}', false, NOW(), NOW())
		RETURNING id`,
		ownerID, title, content,
	).Scan(&docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
	}
	return docID, err
}

func (r *DocumentRepository) Get(docID int64) (model.Document, error) {
	var d model.Document
	var content string
	var deletedAt sql.NullTime
	err := r.DB.QueryRow(`
		SELECT id, owner_id, title, content, tags, is_favorite, deleted_at, created_at, updated_at
		FROM documents WHERE id = $1`,
		docID,
	).Scan(&d.ID, &d.OwnerID, &d.Title, &content, pq.Array(&d.Tags), &d.Favorite, &deletedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get document %d: %v", docID, err)
		}
		return model.Document{}, err
	}
	d.Content = []byte(content)
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	return d, nil
}

func (r *DocumentRepository) OwnerID(docID int64) (int64, error) {
	var ownerID int64
	err := r.DB.QueryRow("SELECT owner_id FROM documents WHERE id = $1", docID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner ID for doc %d: %v", docID, err)
	}
	return ownerID, err
}

func (r *DocumentRepository) UpdateContent(docID int64, content string) error {
	_, err := r.DB.Exec(
		"UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL",
		content, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update content for doc %d: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) UpdateTitle(docID int64, title string) error {
	_, err := r.DB.Exec(
		"UPDATE documents SET title = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL",
		title, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update title for doc %d: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) UpdateTags(docID int64, tags []string) error {
	_, err := r.DB.Exec(
		"UPDATE documents SET tags = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL",
		pq.Array(tags), docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update tags for doc %d: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) UpdateFavorite(docID int64, favorite bool) error {
	_, err := r.DB.Exec(
		"UPDATE documents SET is_favorite = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL",
		favorite, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update favorite for doc %d: %v", docID, err)
	}
	return err
}

// Trash soft-deletes; already-trashed documents are left alone.
func (r *DocumentRepository) Trash(docID int64) (int64, error) {
	res, err := r.DB.Exec(
		"UPDATE documents SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to trash doc %d: %v", docID, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DocumentRepository) Restore(docID int64) (int64, error) {
	res, err := r.DB.Exec(
		"UPDATE documents SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL",
		docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to restore doc %d: %v", docID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// Purge hard-deletes the document and its dependent rows in one transaction.
func (r *DocumentRepository) Purge(docID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM document_shares WHERE document_id = $1",
		"DELETE FROM dossier_documents WHERE document_id = $1",
		"DELETE FROM documents WHERE id = $1",
	} {
		if _, err := tx.Exec(q, docID); err != nil {
			logger.Sugar.Errorf("Failed to purge doc %d: %v", docID, err)
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListAccessible returns documents the user owns or holds a share on (by id
// or registered email), trash excluded, most recently updated first.
func (r *DocumentRepository) ListAccessible(userID int64) ([]model.DocumentMetadata, error) {
	rows, err := r.DB.Query(`
		SELECT id, title, updated_at, content, tags, is_favorite, owner_id FROM documents
		WHERE owner_id = $1 AND deleted_at IS NULL
		UNION
		SELECT d.id, d.title, d.updated_at, d.content, d.tags, d.is_favorite, d.owner_id
		FROM documents d
		JOIN document_shares s ON d.id = s.document_id
		WHERE d.deleted_at IS NULL
		  AND (s.user_id = $1 OR lower(s.email) = (SELECT lower(email) FROM users WHERE id = $1))
		ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.DocumentMetadata
	for rows.Next() {
		var doc model.DocumentMetadata
		var content string
		var ownerID int64
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.UpdatedAt, &content, pq.Array(&doc.Tags), &doc.Favorite, &ownerID); err != nil {
			continue
		}
		doc.IsOwner = ownerID == userID
		doc.Snippet = snippetFromContent(content)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListTrashed returns the owner's own trashed documents, newest trash first.
func (r *DocumentRepository) ListTrashed(ownerID int64) ([]model.DocumentMetadata, error) {
	rows, err := r.DB.Query(`
		SELECT id, title, updated_at, content, tags, is_favorite FROM documents
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC`,
		ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get trash for user %d: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.DocumentMetadata
	for rows.Next() {
		var doc model.DocumentMetadata
		var content string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.UpdatedAt, &content, pq.Array(&doc.Tags), &doc.Favorite); err != nil {
			continue
		}
		doc.IsOwner = true
		doc.Snippet = snippetFromContent(content)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Members returns the owner plus every grantee of a document.
func (r *DocumentRepository) Members(docID int64) ([]model.CollaboratorInfo, error) {
	rows, err := r.DB.Query(`
		SELECT u.id, u.email, 'owner' AS permission
		FROM documents d JOIN users u ON d.owner_id = u.id WHERE d.id = $1
		UNION ALL
		SELECT s.user_id, s.email, s.permission
		FROM document_shares s WHERE s.document_id = $1`,
		docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get members for doc %d: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	var members []model.CollaboratorInfo
	for rows.Next() {
		var c model.CollaboratorInfo
		var userID sql.NullInt64
		if err := rows.Scan(&userID, &c.Email, &c.Permission); err != nil {
			continue
		}
		if userID.Valid {
			c.UserID = &userID.Int64
		}
		members = append(members, c)
	}
	return members, rows.Err()
}

// snippetFromContent extracts the first ~100 characters of text from the
// stored editor delta so listings can show a preview without the full body.
func snippetFromContent(contentJSON string) string {
	type op struct {
		Insert interface{} `json:"insert"`
	}
	type delta struct {
		Ops []op `json:"ops"`
	}
	var d delta
	if err := json.Unmarshal([]byte(contentJSON), &d); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, o := range d.Ops {
		if str, ok := o.Insert.(string); ok {
			sb.WriteString(str)
		}
		if sb.Len() > 100 {
			break
		}
	}
	res := strings.TrimSpace(sb.String())
	res = strings.ReplaceAll(res, "\n", " ")
	if len(res) > 100 {
		return res[:100] + "..."
	}
	return res
}
