package repository

import (
	"database/sql"

	"notus/internal/share/model"
	"notus/pkg/logger"
)

// ShareRepository is the persistence gateway for share rows and the document
// lookups the access model needs. Uniqueness of (document, grantee email) is
// enforced by the database; Upsert leans on it instead of any client-side
// coordination.
type ShareRepository struct {
	DB *sql.DB
}

func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{DB: db}
}

// DocumentOwner returns the owner of a document, trashed or not.
func (r *ShareRepository) DocumentOwner(docID int64) (int64, error) {
	var ownerID int64
	err := r.DB.QueryRow("SELECT owner_id FROM documents WHERE id = $1", docID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner for doc %d: %v", docID, err)
	}
	return ownerID, err
}

// DocumentInfo returns owner and title together; the confirmation flow needs
// both for the notification payload.
func (r *ShareRepository) DocumentInfo(docID int64) (ownerID int64, title string, err error) {
	err = r.DB.QueryRow("SELECT owner_id, title FROM documents WHERE id = $1", docID).Scan(&ownerID, &title)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get document info for doc %d: %v", docID, err)
	}
	return ownerID, title, err
}

// Upsert inserts a share or, when one exists for the same (document, email),
// updates its permission. The user id is resolved from the email when an
// account exists and preserved across re-shares.
func (r *ShareRepository) Upsert(docID int64, email string, permission model.Permission) (model.Share, error) {
	var s model.Share
	var userID sql.NullInt64
	err := r.DB.QueryRow(`
		INSERT INTO document_shares (document_id, email, user_id, permission, created_at)
		VALUES ($1, lower($2), (SELECT id FROM users WHERE lower(email) = lower($2)), $3, NOW())
		ON CONFLICT (document_id, lower(email))
		DO UPDATE SET permission = EXCLUDED.permission,
		              user_id = COALESCE(document_shares.user_id, EXCLUDED.user_id)
		RETURNING id, document_id, email, user_id, permission, created_at`,
		docID, email, permission,
	).Scan(&s.ID, &s.DocumentID, &s.Email, &userID, &s.Permission, &s.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to upsert share for doc %d: %v", docID, err)
		return model.Share{}, err
	}
	if userID.Valid {
		s.UserID = &userID.Int64
	}
	return s, nil
}

// Remove deletes the share for a grantee; deleting a missing share is not an
// error.
func (r *ShareRepository) Remove(docID int64, grantee model.Grantee) error {
	var err error
	if userID, ok := grantee.UserID(); ok {
		_, err = r.DB.Exec(`
			DELETE FROM document_shares
			WHERE document_id = $1
			  AND (user_id = $2 OR lower(email) = (SELECT lower(email) FROM users WHERE id = $2))`,
			docID, userID)
	} else if email, ok := grantee.Email(); ok {
		_, err = r.DB.Exec(
			"DELETE FROM document_shares WHERE document_id = $1 AND lower(email) = lower($2)",
			docID, email)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to remove share for doc %d: %v", docID, err)
	}
	return err
}

// FindByUser locates the share granted to a user, matching either the stored
// user id or an email-only share whose address is the user's registered one.
func (r *ShareRepository) FindByUser(docID, userID int64) (model.Share, error) {
	var s model.Share
	var shareUserID sql.NullInt64
	err := r.DB.QueryRow(`
		SELECT id, document_id, email, user_id, permission, created_at
		FROM document_shares
		WHERE document_id = $1
		  AND (user_id = $2 OR lower(email) = (SELECT lower(email) FROM users WHERE id = $2))`,
		docID, userID,
	).Scan(&s.ID, &s.DocumentID, &s.Email, &shareUserID, &s.Permission, &s.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to find share for user %d on doc %d: %v", userID, docID, err)
		}
		return model.Share{}, err
	}
	if shareUserID.Valid {
		s.UserID = &shareUserID.Int64
	}
	return s, nil
}

// UpdatePermissionByUser rewrites the permission of an existing share located
// by resolved user id. sql.ErrNoRows when the user holds no share.
func (r *ShareRepository) UpdatePermissionByUser(docID, userID int64, permission model.Permission) (model.Share, error) {
	var s model.Share
	var shareUserID sql.NullInt64
	err := r.DB.QueryRow(`
		UPDATE document_shares SET permission = $3
		WHERE document_id = $1
		  AND (user_id = $2 OR lower(email) = (SELECT lower(email) FROM users WHERE id = $2))
		RETURNING id, document_id, email, user_id, permission, created_at`,
		docID, userID, permission,
	).Scan(&s.ID, &s.DocumentID, &s.Email, &shareUserID, &s.Permission, &s.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to update share for user %d on doc %d: %v", userID, docID, err)
		}
		return model.Share{}, err
	}
	if shareUserID.Valid {
		s.UserID = &shareUserID.Int64
	}
	return s, nil
}

// ListByDocument returns all active shares in creation order.
func (r *ShareRepository) ListByDocument(docID int64) ([]model.AccessEntry, error) {
	rows, err := r.DB.Query(`
		SELECT email, user_id, permission
		FROM document_shares
		WHERE document_id = $1
		ORDER BY created_at, id`,
		docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list shares for doc %d: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	entries := []model.AccessEntry{}
	for rows.Next() {
		var e model.AccessEntry
		var userID sql.NullInt64
		if err := rows.Scan(&e.Email, &userID, &e.Permission); err != nil {
			return nil, err
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
