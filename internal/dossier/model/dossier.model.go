package model

import "time"

// Dossier is a user-owned folder grouping documents through a join table.
// Its lifecycle is independent of the documents it contains.
type Dossier struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	DocCount  int       `json:"doc_count"`
	CreatedAt time.Time `json:"created_at"`
}

type DossierDocument struct {
	DocumentID int64     `json:"document_id"`
	Title      string    `json:"title"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateDossierRequest struct {
	Name string `json:"name"`
}

type RenameDossierRequest struct {
	DossierID int64  `json:"dossierId"`
	Name      string `json:"name"`
}

type MembershipRequest struct {
	DossierID  int64 `json:"dossierId"`
	DocumentID int64 `json:"documentId"`
}
