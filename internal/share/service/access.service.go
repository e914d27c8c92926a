package service

import (
	"database/sql"
	"errors"
	"fmt"

	"notus/internal/share/model"
	"notus/internal/share/repository"
	"notus/pkg/apperr"
)

// AccessService is the document access model: it decides, for a (document,
// actor) pair, whether an action is permitted, and owns share mutations.
// It has no session awareness; owner/admin gating on mutations is enforced
// by the handlers.
type AccessService struct {
	Repo *repository.ShareRepository
}

func NewAccessService(repo *repository.ShareRepository) *AccessService {
	return &AccessService{Repo: repo}
}

// OwnerID resolves a document's owner.
func (s *AccessService) OwnerID(docID int64) (int64, error) {
	ownerID, err := s.Repo.DocumentOwner(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: document %d", apperr.ErrNotFound, docID)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return ownerID, nil
}

func (s *AccessService) IsOwner(docID, userID int64) (bool, error) {
	ownerID, err := s.OwnerID(docID)
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}

// HasPermission reports whether the actor may act at the required level:
// the owner holds implicit read-write, otherwise a share matched by user id
// or registered email must cover the level.
func (s *AccessService) HasPermission(docID, userID int64, required model.Permission) (bool, error) {
	isOwner, err := s.IsOwner(docID, userID)
	if err != nil {
		return false, err
	}
	if isOwner {
		return true, nil
	}
	share, err := s.FindShare(docID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return share.Permission.Covers(required), nil
}

// FindShare resolves the share held by a user on a document.
func (s *AccessService) FindShare(docID, userID int64) (model.Share, error) {
	share, err := s.Repo.FindByUser(docID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Share{}, fmt.Errorf("%w: no share for user %d", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return model.Share{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return share, nil
}

// AddShare grants or updates access for an email. Re-sharing the same
// grantee updates the permission instead of duplicating the row.
func (s *AccessService) AddShare(docID int64, email string, permission model.Permission) (model.Share, error) {
	if email == "" || !permission.Valid() {
		return model.Share{}, fmt.Errorf("%w: email and permission required", apperr.ErrValidation)
	}
	if _, err := s.OwnerID(docID); err != nil {
		return model.Share{}, err
	}
	share, err := s.Repo.Upsert(docID, email, permission)
	if err != nil {
		return model.Share{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return share, nil
}

// RemoveShare revokes a grantee's access. Removing a share that does not
// exist is not an error.
func (s *AccessService) RemoveShare(docID int64, grantee model.Grantee) error {
	if _, idOK := grantee.UserID(); !idOK {
		if _, emailOK := grantee.Email(); !emailOK {
			return fmt.Errorf("%w: grantee required", apperr.ErrValidation)
		}
	}
	if err := s.Repo.Remove(docID, grantee); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return nil
}

// UpdatePermission rewrites an existing share located by resolved user id.
func (s *AccessService) UpdatePermission(docID, userID int64, permission model.Permission) (model.Share, error) {
	if !permission.Valid() {
		return model.Share{}, fmt.Errorf("%w: unknown permission %q", apperr.ErrValidation, permission)
	}
	share, err := s.Repo.UpdatePermissionByUser(docID, userID, permission)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Share{}, fmt.Errorf("%w: no share for user %d", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return model.Share{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return share, nil
}

// AccessList returns the document's shares in creation order.
func (s *AccessService) AccessList(docID int64) ([]model.AccessEntry, error) {
	entries, err := s.Repo.ListByDocument(docID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return entries, nil
}
