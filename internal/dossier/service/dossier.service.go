package service

import (
	"database/sql"
	"errors"
	"fmt"

	"notus/internal/dossier/model"
	"notus/internal/dossier/repository"
	sharemodel "notus/internal/share/model"
	shareservice "notus/internal/share/service"
	"notus/pkg/apperr"
)

type DossierService struct {
	Repo   *repository.DossierRepository
	Access *shareservice.AccessService
}

func NewDossierService(repo *repository.DossierRepository, access *shareservice.AccessService) *DossierService {
	return &DossierService{Repo: repo, Access: access}
}

func (s *DossierService) Create(ownerID int64, name string) (model.Dossier, error) {
	if name == "" {
		return model.Dossier{}, fmt.Errorf("%w: name required", apperr.ErrValidation)
	}
	dossier, err := s.Repo.Create(ownerID, name)
	if err != nil {
		return model.Dossier{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return dossier, nil
}

func (s *DossierService) List(ownerID int64) ([]model.Dossier, error) {
	dossiers, err := s.Repo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return dossiers, nil
}

func (s *DossierService) Rename(dossierID, userID int64, name string) error {
	if name == "" {
		return fmt.Errorf("%w: name required", apperr.ErrValidation)
	}
	if err := s.requireOwner(dossierID, userID); err != nil {
		return err
	}
	affected, err := s.Repo.Rename(dossierID, name)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: dossier %d", apperr.ErrNotFound, dossierID)
	}
	return nil
}

func (s *DossierService) Delete(dossierID, userID int64) error {
	if err := s.requireOwner(dossierID, userID); err != nil {
		return err
	}
	if err := s.Repo.Delete(dossierID); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return nil
}

// AddDocument attaches a document the caller can at least read to their own
// dossier.
func (s *DossierService) AddDocument(dossierID, docID, userID int64) error {
	if err := s.requireOwner(dossierID, userID); err != nil {
		return err
	}
	canRead, err := s.Access.HasPermission(docID, userID, sharemodel.PermissionRead)
	if err != nil {
		return err
	}
	if !canRead {
		return apperr.ErrForbidden
	}
	if err := s.Repo.AddDocument(dossierID, docID); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return nil
}

func (s *DossierService) RemoveDocument(dossierID, docID, userID int64) error {
	if err := s.requireOwner(dossierID, userID); err != nil {
		return err
	}
	if err := s.Repo.RemoveDocument(dossierID, docID); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return nil
}

func (s *DossierService) ListDocuments(dossierID, userID int64) ([]model.DossierDocument, error) {
	if err := s.requireOwner(dossierID, userID); err != nil {
		return nil, err
	}
	docs, err := s.Repo.ListDocuments(dossierID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return docs, nil
}

func (s *DossierService) requireOwner(dossierID, userID int64) error {
	ownerID, err := s.Repo.OwnerID(dossierID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: dossier %d", apperr.ErrNotFound, dossierID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if ownerID != userID {
		return apperr.ErrForbidden
	}
	return nil
}
