package service

import (
	"database/sql"
	"errors"
	"fmt"

	"notus/internal/document/model"
	"notus/internal/document/repository"
	sharemodel "notus/internal/share/model"
	shareservice "notus/internal/share/service"
	"notus/pkg/apperr"
	"notus/socket"
)

const defaultTitle = "Untitled"

const emptyContent = `{"ops":[]}`

// DocumentService implements document CRUD and the trash lifecycle. Access
// decisions are delegated to the share access model; the hub is told when a
// document changes under connected editors or disappears.
type DocumentService struct {
	Repo   *repository.DocumentRepository
	Access *shareservice.AccessService
	Hub    *socket.Hub
}

func NewDocumentService(repo *repository.DocumentRepository, access *shareservice.AccessService, hub *socket.Hub) *DocumentService {
	return &DocumentService{Repo: repo, Access: access, Hub: hub}
}

func (s *DocumentService) Create(userID int64, title string) (int64, error) {
	if title == "" {
		title = defaultTitle
	}
	docID, err := s.Repo.Create(userID, title, emptyContent)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return docID, nil
}

// Get fetches one document. Read permission is required; a trashed document
// is visible to its owner only.
func (s *DocumentService) Get(docID, userID int64) (model.Document, error) {
	ok, err := s.Access.HasPermission(docID, userID, sharemodel.PermissionRead)
	if err != nil {
		return model.Document{}, err
	}
	if !ok {
		return model.Document{}, apperr.ErrForbidden
	}

	doc, err := s.Repo.Get(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, fmt.Errorf("%w: document %d", apperr.ErrNotFound, docID)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if doc.Trashed() && doc.OwnerID != userID {
		return model.Document{}, apperr.ErrForbidden
	}
	return doc, nil
}

// Update applies a partial update (title, content, tags, favorite). The
// caller needs read-write permission; trashed documents reject updates at
// the query level.
func (s *DocumentService) Update(userID int64, req model.UpdateDocRequest) error {
	ok, err := s.Access.HasPermission(req.DocumentID, userID, sharemodel.PermissionReadWrite)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}

	if req.Title != nil {
		if *req.Title == "" {
			return fmt.Errorf("%w: title cannot be empty", apperr.ErrValidation)
		}
		if err := s.Repo.UpdateTitle(req.DocumentID, *req.Title); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
		}
	}
	if req.Content != nil {
		if err := s.Repo.UpdateContent(req.DocumentID, string(req.Content)); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
		}
		if s.Hub != nil {
			s.Hub.Broadcast <- socket.WSMessage{
				Type:    socket.UpdateType,
				DocID:   req.DocumentID,
				UserID:  userID,
				Payload: req.Content,
			}
		}
	}
	if req.Tags != nil {
		if err := s.Repo.UpdateTags(req.DocumentID, *req.Tags); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
		}
	}
	if req.Favorite != nil {
		if err := s.Repo.UpdateFavorite(req.DocumentID, *req.Favorite); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
		}
	}
	return nil
}

// Trash moves a document to the trash. Owner only.
func (s *DocumentService) Trash(docID, userID int64) error {
	if err := s.requireOwner(docID, userID); err != nil {
		return err
	}
	affected, err := s.Repo.Trash(docID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d not active", apperr.ErrNotFound, docID)
	}
	if s.Hub != nil {
		s.Hub.RemoveDocument(docID)
	}
	return nil
}

// Restore brings a trashed document back. Owner only; shares survive the
// round trip untouched.
func (s *DocumentService) Restore(docID, userID int64) error {
	if err := s.requireOwner(docID, userID); err != nil {
		return err
	}
	affected, err := s.Repo.Restore(docID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d not in trash", apperr.ErrNotFound, docID)
	}
	return nil
}

// Purge permanently deletes a document along with its shares and dossier
// memberships. Owner only.
func (s *DocumentService) Purge(docID, userID int64) error {
	if err := s.requireOwner(docID, userID); err != nil {
		return err
	}
	if err := s.Repo.Purge(docID); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if s.Hub != nil {
		s.Hub.RemoveDocument(docID)
	}
	return nil
}

// List returns the user's accessible documents with collaborator summaries.
func (s *DocumentService) List(userID int64) ([]model.DocumentMetadata, error) {
	docs, err := s.Repo.ListAccessible(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	for i := range docs {
		members, _ := s.Repo.Members(docs[i].ID)
		if members == nil {
			members = []model.CollaboratorInfo{}
		}
		docs[i].Collab = members
	}
	return docs, nil
}

func (s *DocumentService) ListTrash(userID int64) ([]model.DocumentMetadata, error) {
	docs, err := s.Repo.ListTrashed(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return docs, nil
}

func (s *DocumentService) requireOwner(docID, userID int64) error {
	isOwner, err := s.Access.IsOwner(docID, userID)
	if err != nil {
		return err
	}
	if !isOwner {
		return apperr.ErrForbidden
	}
	return nil
}
