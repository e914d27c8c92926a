package repository

import (
	"database/sql"

	"notus/internal/notification/model"
	"notus/pkg/logger"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

// UserIDByEmail resolves an account from an invited email address.
func (r *NotificationRepository) UserIDByEmail(email string) (int64, error) {
	var userID int64
	err := r.DB.QueryRow("SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&userID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
	}
	return userID, err
}

func (r *NotificationRepository) Insert(senderID, receiverID int64, payload string) (model.Notification, error) {
	n := model.Notification{SenderID: senderID, ReceiverID: receiverID, Payload: payload}
	err := r.DB.QueryRow(`
		INSERT INTO notifications (sender_id, receiver_id, payload, is_read, created_at)
		VALUES ($1, $2, $3, false, NOW())
		RETURNING id, created_at`,
		senderID, receiverID, payload,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert notification for user %d: %v", receiverID, err)
		return model.Notification{}, err
	}
	return n, nil
}

func (r *NotificationRepository) ListByReceiver(receiverID int64) ([]model.Notification, error) {
	rows, err := r.DB.Query(`
		SELECT id, sender_id, receiver_id, payload, is_read, created_at
		FROM notifications WHERE receiver_id = $1
		ORDER BY created_at DESC`,
		receiverID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notifications for user %d: %v", receiverID, err)
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.SenderID, &n.ReceiverID, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flips the read flag; scoped to the receiver so one user cannot
// touch another's notifications.
func (r *NotificationRepository) MarkRead(id, receiverID int64) (int64, error) {
	res, err := r.DB.Exec(
		"UPDATE notifications SET is_read = true WHERE id = $1 AND receiver_id = $2",
		id, receiverID)
	if err != nil {
		logger.Sugar.Errorf("Failed to mark notification %d read: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepository) Delete(id, receiverID int64) (int64, error) {
	res, err := r.DB.Exec(
		"DELETE FROM notifications WHERE id = $1 AND receiver_id = $2",
		id, receiverID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete notification %d: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}
