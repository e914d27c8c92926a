package handler

import (
	"net/http"
	"strconv"

	"notus/internal/notification/service"
	"notus/middleware"
	"notus/pkg/apperr"
	"notus/pkg/logger"
	"notus/pkg/web"
)

type NotificationHandler struct {
	Service *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	notifications, err := h.Service.List(userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list notifications: %v", err)
		web.Fail(w, err)
		return
	}
	web.Success(w, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mutate(w, r, h.Service.MarkRead)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mutate(w, r, h.Service.Delete)
}

func (h *NotificationHandler) mutate(w http.ResponseWriter, r *http.Request, op func(id, receiverID int64) error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		web.Fail(w, apperr.ErrUnauthenticated)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		web.Fail(w, apperr.ErrValidation)
		return
	}

	if err := op(id, userID); err != nil {
		logger.Sugar.Errorf("Handler: Notification mutation failed for %d: %v", id, err)
		web.Fail(w, err)
		return
	}
	web.Success(w, nil)
}
