package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notus/internal/document/model"
	"notus/internal/document/repository"
	sharerepo "notus/internal/share/repository"
	shareservice "notus/internal/share/service"
	"notus/pkg/apperr"
)

func newDocumentService(t *testing.T) (*DocumentService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	access := shareservice.NewAccessService(sharerepo.NewShareRepository(db))
	svc := NewDocumentService(repository.NewDocumentRepository(db), access, nil)
	return svc, mock, func() { db.Close() }
}

func expectDocOwner(mock sqlmock.Sqlmock, docID, ownerID int64) {
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
}

func TestCreateDefaultsTitle(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(int64(1), "Untitled", `{"ops":[]}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	docID, err := svc.Create(1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), docID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrashRequiresOwner(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	expectDocOwner(mock, 42, 1)

	err := svc.Trash(42, 2)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrashThenRestore(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	expectDocOwner(mock, 42, 1)
	mock.ExpectExec("UPDATE documents SET deleted_at = NOW").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Trash(42, 1))

	expectDocOwner(mock, 42, 1)
	mock.ExpectExec("UPDATE documents SET deleted_at = NULL").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Restore(42, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreNotInTrash(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	expectDocOwner(mock, 42, 1)
	mock.ExpectExec("UPDATE documents SET deleted_at = NULL").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Restore(42, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRequiresReadWrite(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	// The actor holds only a read share.
	expectDocOwner(mock, 42, 1)
	mock.ExpectQuery("SELECT id, document_id, email, user_id, permission, created_at").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(10, 42, "bob@example.com", 7, "read", time.Now()))

	title := "New title"
	err := svc.Update(7, model.UpdateDocRequest{DocumentID: 42, Title: &title})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTrashedHiddenFromGrantees(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	expectDocOwner(mock, 42, 1)
	mock.ExpectQuery("SELECT id, document_id, email, user_id, permission, created_at").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(10, 42, "bob@example.com", 7, "read-write", time.Now()))
	mock.ExpectQuery("SELECT id, owner_id, title, content, tags, is_favorite, deleted_at").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "content", "tags", "is_favorite", "deleted_at", "created_at", "updated_at"}).
			AddRow(42, 1, "Notes", `{"ops":[]}`, "{}", false, time.Now(), time.Now(), time.Now()))

	_, err := svc.Get(42, 7)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingDocument(t *testing.T) {
	svc, mock, closeDB := newDocumentService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(404, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
