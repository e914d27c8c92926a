package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	notifmodel "notus/internal/notification/model"
	"notus/internal/notification/repository"
	sharemodel "notus/internal/share/model"
	"notus/pkg/apperr"
	"notus/pkg/logger"
)

// Feed pushes a payload to a user's live connections, if any. Implemented by
// the socket hub.
type Feed interface {
	Push(userID int64, payload []byte)
}

// NotificationService records in-app notifications and serves the receiver
// side. ShareConfirmed is the fire-and-forget relay: it resolves the invited
// email to an account, inserts the row and pushes it to the live feed, and
// swallows every failure so the share flow that triggered it never fails.
type NotificationService struct {
	Repo *repository.NotificationRepository
	Feed Feed
}

func NewNotificationService(repo *repository.NotificationRepository, feed Feed) *NotificationService {
	return &NotificationService{Repo: repo, Feed: feed}
}

// ShareConfirmed implements the invite flow's Notifier. Best effort only:
// delivery is at-most-once, not retried, and never reported to the caller.
func (s *NotificationService) ShareConfirmed(senderID int64, receiverEmail string, docID int64, docTitle string, permission sharemodel.Permission) {
	receiverID, err := s.Repo.UserIDByEmail(receiverEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Sugar.Infof("No account for %s, skipping share notification", receiverEmail)
		}
		return
	}

	payload, err := json.Marshal(notifmodel.SharePayload{
		Type:       "share_confirmed",
		DocumentID: docID,
		DocTitle:   docTitle,
		Permission: string(permission),
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to marshal share notification payload: %v", err)
		return
	}

	n, err := s.Repo.Insert(senderID, receiverID, string(payload))
	if err != nil {
		return // already logged by the repository
	}

	if s.Feed != nil {
		if msg, err := json.Marshal(n); err == nil {
			s.Feed.Push(receiverID, msg)
		}
	}
}

func (s *NotificationService) List(receiverID int64) ([]notifmodel.Notification, error) {
	notifications, err := s.Repo.ListByReceiver(receiverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(id, receiverID int64) error {
	affected, err := s.Repo.MarkRead(id, receiverID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *NotificationService) Delete(id, receiverID int64) error {
	affected, err := s.Repo.Delete(id, receiverID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
	}
	return nil
}
