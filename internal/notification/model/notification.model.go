package model

import "time"

type Notification struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Payload    string    `json:"payload"` // stringified JSON, opaque to the server
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// SharePayload is the structured body recorded when a share is confirmed.
type SharePayload struct {
	Type       string `json:"type"`
	DocumentID int64  `json:"document_id"`
	DocTitle   string `json:"doc_title"`
	Permission string `json:"permission"`
}

type MarkReadRequest struct {
	ID int64 `json:"id"`
}
