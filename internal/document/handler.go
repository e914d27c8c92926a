package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"notus/internal/document/model"
	"notus/internal/document/service"
	"notus/middleware"
	"notus/pkg/apperr"
	"notus/pkg/logger"
	"notus/pkg/web"
)

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: svc}
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	var req model.CreateDocRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means default title

	docID, err := h.Service.Create(userID, req.Title)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create document: %v", err)
		web.Fail(w, err)
		return
	}
	web.Success(w, model.CreateDocResponse{DocID: docID})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	docs, err := h.Service.List(userID)
	if err != nil {
		logger.Sugar.Errorf("Error fetching documents: %v", err)
		web.Fail(w, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentMetadata{}
	}
	web.Success(w, docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, docID, ok := h.identityAndDocID(w, r)
	if !ok {
		return
	}

	doc, err := h.Service.Get(docID, userID)
	if err != nil {
		logger.Sugar.Infof("Handler: Fetch of doc %d refused: %v", docID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	var req model.UpdateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}
	if req.Title == nil && req.Content == nil && req.Tags == nil && req.Favorite == nil {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if err := h.Service.Update(userID, req); err != nil {
		logger.Sugar.Errorf("Handler: Failed to update doc %d: %v", req.DocumentID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ownerMutation(w, r, h.Service.Trash)
}

func (h *DocumentHandler) RestoreDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ownerMutation(w, r, h.Service.Restore)
}

func (h *DocumentHandler) PurgeDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ownerMutation(w, r, h.Service.Purge)
}

func (h *DocumentHandler) GetTrash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	docs, err := h.Service.ListTrash(userID)
	if err != nil {
		logger.Sugar.Errorf("Error fetching trash: %v", err)
		web.Fail(w, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentMetadata{}
	}
	web.Success(w, docs)
}

func (h *DocumentHandler) ownerMutation(w http.ResponseWriter, r *http.Request, op func(docID, userID int64) error) {
	userID, docID, ok := h.identityAndDocID(w, r)
	if !ok {
		return
	}
	if err := op(docID, userID); err != nil {
		logger.Sugar.Errorf("Handler: Mutation of doc %d failed: %v", docID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *DocumentHandler) identityAndDocID(w http.ResponseWriter, r *http.Request) (userID, docID int64, ok bool) {
	userID, hasUser := middleware.UserID(r.Context())
	if !hasUser {
		web.Fail(w, apperr.ErrUnauthenticated)
		return 0, 0, false
	}
	docID, err := strconv.ParseInt(r.URL.Query().Get("docId"), 10, 64)
	if err != nil || docID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return 0, 0, false
	}
	return userID, docID, true
}
