package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"notus/internal/dossier/model"
	"notus/internal/dossier/service"
	"notus/middleware"
	"notus/pkg/apperr"
	"notus/pkg/logger"
	"notus/pkg/web"
)

type DossierHandler struct {
	Service *service.DossierService
}

func NewDossierHandler(svc *service.DossierService) *DossierHandler {
	return &DossierHandler{Service: svc}
}

func (h *DossierHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	var req model.CreateDossierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	dossier, err := h.Service.Create(userID, req.Name)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create dossier: %v", err)
		web.Fail(w, err)
		return
	}
	web.Success(w, dossier)
}

func (h *DossierHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	dossiers, err := h.Service.List(userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list dossiers: %v", err)
		web.Fail(w, err)
		return
	}
	web.Success(w, dossiers)
}

func (h *DossierHandler) Rename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	var req model.RenameDossierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DossierID <= 0 || req.Name == "" {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if err := h.Service.Rename(req.DossierID, userID, req.Name); err != nil {
		logger.Sugar.Errorf("Handler: Failed to rename dossier %d: %v", req.DossierID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *DossierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	dossierID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || dossierID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if err := h.Service.Delete(dossierID, userID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete dossier %d: %v", dossierID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *DossierHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.membership(w, r, h.Service.AddDocument)
}

func (h *DossierHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.membership(w, r, h.Service.RemoveDocument)
}

func (h *DossierHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	dossierID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || dossierID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	docs, err := h.Service.ListDocuments(dossierID, userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list dossier %d documents: %v", dossierID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, docs)
}

func (h *DossierHandler) membership(w http.ResponseWriter, r *http.Request, op func(dossierID, docID, userID int64) error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	var req model.MembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DossierID <= 0 || req.DocumentID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if err := op(req.DossierID, req.DocumentID, userID); err != nil {
		logger.Sugar.Errorf("Handler: Dossier %d membership change failed: %v", req.DossierID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}
