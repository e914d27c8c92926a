package repository

import (
	"database/sql"

	"notus/internal/dossier/model"
	"notus/pkg/logger"
)

type DossierRepository struct {
	DB *sql.DB
}

func NewDossierRepository(db *sql.DB) *DossierRepository {
	return &DossierRepository{DB: db}
}

func (r *DossierRepository) Create(ownerID int64, name string) (model.Dossier, error) {
	d := model.Dossier{OwnerID: ownerID, Name: name}
	err := r.DB.QueryRow(`
		INSERT INTO dossiers (owner_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at`,
		ownerID, name,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create dossier: %v", err)
		return model.Dossier{}, err
	}
	return d, nil
}

func (r *DossierRepository) OwnerID(dossierID int64) (int64, error) {
	var ownerID int64
	err := r.DB.QueryRow("SELECT owner_id FROM dossiers WHERE id = $1", dossierID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner of dossier %d: %v", dossierID, err)
	}
	return ownerID, err
}

func (r *DossierRepository) ListByOwner(ownerID int64) ([]model.Dossier, error) {
	rows, err := r.DB.Query(`
		SELECT d.id, d.owner_id, d.name, d.created_at, COUNT(dd.document_id)
		FROM dossiers d
		LEFT JOIN dossier_documents dd ON d.id = dd.dossier_id
		WHERE d.owner_id = $1
		GROUP BY d.id
		ORDER BY d.name`,
		ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list dossiers for user %d: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	dossiers := []model.Dossier{}
	for rows.Next() {
		var d model.Dossier
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.CreatedAt, &d.DocCount); err != nil {
			return nil, err
		}
		dossiers = append(dossiers, d)
	}
	return dossiers, rows.Err()
}

func (r *DossierRepository) Rename(dossierID int64, name string) (int64, error) {
	res, err := r.DB.Exec("UPDATE dossiers SET name = $1 WHERE id = $2", name, dossierID)
	if err != nil {
		logger.Sugar.Errorf("Failed to rename dossier %d: %v", dossierID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the dossier and its join rows only; member documents are
// untouched.
func (r *DossierRepository) Delete(dossierID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM dossier_documents WHERE dossier_id = $1",
		"DELETE FROM dossiers WHERE id = $1",
	} {
		if _, err := tx.Exec(q, dossierID); err != nil {
			logger.Sugar.Errorf("Failed to delete dossier %d: %v", dossierID, err)
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// AddDocument is idempotent: re-attaching an already-attached document is a
// no-op.
func (r *DossierRepository) AddDocument(dossierID, docID int64) error {
	_, err := r.DB.Exec(`
		INSERT INTO dossier_documents (dossier_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT (dossier_id, document_id) DO NOTHING`,
		dossierID, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to add doc %d to dossier %d: %v", docID, dossierID, err)
	}
	return err
}

func (r *DossierRepository) RemoveDocument(dossierID, docID int64) error {
	_, err := r.DB.Exec(
		"DELETE FROM dossier_documents WHERE dossier_id = $1 AND document_id = $2",
		dossierID, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to remove doc %d from dossier %d: %v", docID, dossierID, err)
	}
	return err
}

func (r *DossierRepository) ListDocuments(dossierID int64) ([]model.DossierDocument, error) {
	rows, err := r.DB.Query(`
		SELECT d.id, d.title, d.updated_at
		FROM documents d
		JOIN dossier_documents dd ON d.id = dd.document_id
		WHERE dd.dossier_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.updated_at DESC`,
		dossierID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents of dossier %d: %v", dossierID, err)
		return nil, err
	}
	defer rows.Close()

	docs := []model.DossierDocument{}
	for rows.Next() {
		var d model.DossierDocument
		if err := rows.Scan(&d.DocumentID, &d.Title, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
