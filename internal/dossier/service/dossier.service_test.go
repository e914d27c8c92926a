package service

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notus/internal/dossier/repository"
	sharerepo "notus/internal/share/repository"
	shareservice "notus/internal/share/service"
	"notus/pkg/apperr"
)

func newDossierService(t *testing.T) (*DossierService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	access := shareservice.NewAccessService(sharerepo.NewShareRepository(db))
	svc := NewDossierService(repository.NewDossierRepository(db), access)
	return svc, mock, func() { db.Close() }
}

func TestAddDocumentRequiresDossierOwner(t *testing.T) {
	svc, mock, closeDB := newDossierService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM dossiers WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))

	err := svc.AddDocument(5, 42, 2)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddDocumentRequiresDocumentAccess(t *testing.T) {
	svc, mock, closeDB := newDossierService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM dossiers WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(9))
	mock.ExpectQuery("SELECT id, document_id, email, user_id, permission, created_at").
		WithArgs(int64(42), int64(1)).
		WillReturnError(sql.ErrNoRows)

	err := svc.AddDocument(5, 42, 1)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddDocumentIdempotent(t *testing.T) {
	svc, mock, closeDB := newDossierService(t)
	defer closeDB()

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT owner_id FROM dossiers WHERE id = \\$1").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
		mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
		mock.ExpectExec("INSERT INTO dossier_documents").
			WithArgs(int64(5), int64(42)).
			WillReturnResult(sqlmock.NewResult(0, int64(1-i)))
	}

	require.NoError(t, svc.AddDocument(5, 42, 1))
	require.NoError(t, svc.AddDocument(5, 42, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDossierKeepsDocuments(t *testing.T) {
	svc, mock, closeDB := newDossierService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM dossiers WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM dossier_documents WHERE dossier_id").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM dossiers WHERE id").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(5, 1))
	// No DELETE against the documents table was expected or issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenameMissingDossier(t *testing.T) {
	svc, mock, closeDB := newDossierService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM dossiers WHERE id = \\$1").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	err := svc.Rename(404, 1, "Archive")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
