package model

import (
	"encoding/json"
	"time"
)

type Document struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Tags      []string        `json:"tags"`
	Favorite  bool            `json:"favorite"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Trashed reports whether the document sits in the trash.
func (d *Document) Trashed() bool { return d.DeletedAt != nil }

type CollaboratorInfo struct {
	UserID     *int64 `json:"user_id,omitempty"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// DocumentMetadata is a listing entry: no full content, just a snippet.
type DocumentMetadata struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	UpdatedAt time.Time          `json:"updated_at"`
	Snippet   string             `json:"snippet"`
	Tags      []string           `json:"tags"`
	Favorite  bool               `json:"favorite"`
	IsOwner   bool               `json:"is_owner"`
	Collab    []CollaboratorInfo `json:"collab"`
}

type CreateDocRequest struct {
	Title string `json:"title"`
}

type CreateDocResponse struct {
	DocID int64 `json:"document_id"`
}

// UpdateDocRequest carries a partial update; nil fields are left untouched.
type UpdateDocRequest struct {
	DocumentID int64           `json:"documentId"`
	Title      *string         `json:"title,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Tags       *[]string       `json:"tags,omitempty"`
	Favorite   *bool           `json:"favorite,omitempty"`
}
