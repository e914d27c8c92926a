package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"notus/internal/share/model"
	"notus/internal/share/service"
	"notus/middleware"
	"notus/pkg/apperr"
	"notus/pkg/logger"
	"notus/pkg/web"
)

type ShareHandler struct {
	Access  *service.AccessService
	Invites *service.InviteService
}

func NewShareHandler(access *service.AccessService, invites *service.InviteService) *ShareHandler {
	return &ShareHandler{Access: access, Invites: invites}
}

// guardOwnerOrAdmin admits the document owner or an administrator. A missing
// document is reported as forbidden so the response does not reveal whether
// the document exists.
func (h *ShareHandler) guardOwnerOrAdmin(r *http.Request, docID int64) (int64, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, apperr.ErrUnauthenticated
	}
	if middleware.IsAdmin(r.Context()) {
		return userID, nil
	}
	isOwner, err := h.Access.IsOwner(docID, userID)
	if err != nil || !isOwner {
		return 0, apperr.ErrForbidden
	}
	return userID, nil
}

func (h *ShareHandler) InviteShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID <= 0 || req.Email == "" {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	_, err := h.Invites.CreateInvite(r.Context(), req.DocumentID, req.Email,
		model.PermissionFromBool(req.Permission), userID, req.InviterName, req.DocTitle)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create invite for doc %d: %v", req.DocumentID, err)
		if errors.Is(err, apperr.ErrNotFound) {
			// Non-owners cannot probe document existence through invites.
			err = apperr.ErrForbidden
		}
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *ShareHandler) ConfirmShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	share, err := h.Invites.ConfirmInvite(r.Context(), token)
	if err != nil {
		logger.Sugar.Infof("Invite confirmation rejected: %v", err)
		web.Fail(w, err)
		return
	}
	web.Success(w, share)
}

func (h *ShareHandler) UpdateShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.ShareUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}
	if req.Email == "" && req.UserID == nil {
		web.Fail(w, fmt.Errorf("%w: email or userId required", apperr.ErrValidation))
		return
	}

	if _, err := h.guardOwnerOrAdmin(r, req.DocumentID); err != nil {
		web.Fail(w, err)
		return
	}

	permission := model.PermissionFromBool(req.Permission)
	var share model.Share
	var err error
	if req.Email != "" {
		share, err = h.Access.AddShare(req.DocumentID, req.Email, permission)
	} else {
		share, err = h.Access.UpdatePermission(req.DocumentID, *req.UserID, permission)
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update share for doc %d: %v", req.DocumentID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, share)
}

func (h *ShareHandler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.ShareDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	var grantee model.Grantee
	switch {
	case req.UserID != nil:
		grantee = model.GranteeByID(*req.UserID)
	case req.Email != "":
		grantee = model.GranteeByEmail(req.Email)
	default:
		web.Fail(w, fmt.Errorf("%w: email or userId required", apperr.ErrValidation))
		return
	}

	if _, err := h.guardOwnerOrAdmin(r, req.DocumentID); err != nil {
		web.Fail(w, err)
		return
	}

	if err := h.Access.RemoveShare(req.DocumentID, grantee); err != nil {
		logger.Sugar.Errorf("Handler: Failed to remove share for doc %d: %v", req.DocumentID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}

func (h *ShareHandler) AccessList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || docID <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if _, err := h.guardOwnerOrAdmin(r, docID); err != nil {
		web.Fail(w, err)
		return
	}

	entries, err := h.Access.AccessList(docID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list shares for doc %d: %v", docID, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, entries)
}
