package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notus/internal/share/model"
	"notus/internal/share/repository"
	"notus/internal/share/service"
	"notus/middleware"
)

func newShareHandler(t *testing.T) (*ShareHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	access := service.NewAccessService(repository.NewShareRepository(db))
	invites := service.NewInviteService(access, nopMailer{}, nil, []byte("secret"), "https://notus.example")
	return NewShareHandler(access, invites), mock, func() { db.Close() }
}

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _, _, _ string) error { return nil }

func patchShare(h *ShareHandler, body map[string]any, identity func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPatch, "/api/openDoc/share", bytes.NewReader(payload))
	if identity != nil {
		req = identity(req)
	}
	rec := httptest.NewRecorder()
	h.UpdateShare(rec, req)
	return rec
}

func asUser(userID int64, admin bool) func(*http.Request) *http.Request {
	return func(r *http.Request) *http.Request {
		return r.WithContext(middleware.WithIdentity(r.Context(), userID, "", admin))
	}
}

func TestUpdateShareUnauthenticated(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	rec := patchShare(h, map[string]any{
		"documentId": 123, "email": "bob@example.com", "permission": true,
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShareForbiddenForNonOwner(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	// U2 is not the owner of U1's document; the mock holds no mutation
	// expectation, so any write would fail the test.
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))

	rec := patchShare(h, map[string]any{
		"documentId": 123, "email": "bob@example.com", "permission": true,
	}, asUser(2, false))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShareHidesMissingDocuments(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	rec := patchShare(h, map[string]any{
		"documentId": 999, "email": "bob@example.com", "permission": true,
	}, asUser(2, false))

	// Same answer as for an existing document the caller does not own.
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShareValidation(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	// Neither email nor userId.
	rec := patchShare(h, map[string]any{
		"documentId": 123, "permission": true,
	}, asUser(1, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing documentId.
	rec = patchShare(h, map[string]any{
		"email": "bob@example.com", "permission": true,
	}, asUser(1, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShareOwnerUpserts(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	// AddShare re-checks document existence before the upsert.
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO document_shares").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(10, 123, "bob@example.com", nil, "read-write", time.Now()))

	rec := patchShare(h, map[string]any{
		"documentId": 123, "email": "bob@example.com", "permission": true,
	}, asUser(1, false))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminMayMutateForeignShares(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	// Admin path skips the owner lookup entirely.
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO document_shares").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(11, 123, "bob@example.com", nil, "read", time.Now()))

	rec := patchShare(h, map[string]any{
		"documentId": 123, "email": "bob@example.com", "permission": false,
	}, asUser(99, true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmShareOverHTTP(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	// The owner issues the invite.
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	token, err := h.Invites.CreateInvite(context.Background(), 123, "bob@example.com",
		model.PermissionReadWrite, 1, "Alice", "Notes")
	require.NoError(t, err)

	// Visiting the link re-checks the document and upserts the share. No
	// session is involved.
	mock.ExpectQuery("SELECT owner_id, title FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "title"}).AddRow(1, "Notes"))
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO document_shares").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(10, 123, "bob@example.com", 7, "read-write", time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/confirm-share?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ConfirmShare(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bob@example.com", data["email"])
	assert.Equal(t, "read-write", data["permission"])

	// The resolved account now holds read-write.
	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("SELECT id, document_id, email, user_id, permission, created_at").
		WithArgs(int64(123), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "email", "user_id", "permission", "created_at"}).
			AddRow(10, 123, "bob@example.com", 7, "read-write", time.Now()))

	granted, err := h.Access.HasPermission(123, 7, model.PermissionReadWrite)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmShareRejectsBadToken(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	req := httptest.NewRequest(http.MethodGet, "/api/confirm-share?token=not-a-token", nil)
	rec := httptest.NewRecorder()
	h.ConfirmShare(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteShareIdempotent(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectExec("DELETE FROM document_shares").
		WillReturnResult(sqlmock.NewResult(0, 0))

	payload, _ := json.Marshal(map[string]any{"documentId": 123, "email": "ghost@example.com"})
	req := httptest.NewRequest(http.MethodDelete, "/api/openDoc/share/delete", bytes.NewReader(payload))
	req = req.WithContext(middleware.WithIdentity(req.Context(), 1, "", false))
	rec := httptest.NewRecorder()
	h.DeleteShare(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessListRequiresOwner(t *testing.T) {
	h, mock, closeDB := newShareHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT owner_id FROM documents WHERE id = \\$1").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))

	req := httptest.NewRequest(http.MethodGet, "/api/openDoc/accessList?id=123", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), 2, "", false))
	rec := httptest.NewRecorder()
	h.AccessList(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
