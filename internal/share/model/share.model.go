package model

import "time"

// Permission is the level a share grants. Read-write subsumes read; the
// owner holds implicit read-write without any share row.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionReadWrite Permission = "read-write"
)

func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionReadWrite
}

// Covers reports whether holding p satisfies the required level.
func (p Permission) Covers(required Permission) bool {
	if p == PermissionReadWrite {
		return true
	}
	return p == required
}

// PermissionFromBool maps the wire form (true = read-write) to the enum.
func PermissionFromBool(readWrite bool) Permission {
	if readWrite {
		return PermissionReadWrite
	}
	return PermissionRead
}

func (p Permission) ReadWrite() bool { return p == PermissionReadWrite }

// Grantee identifies a share recipient either by email (possibly before the
// address holds an account) or by resolved user id. Exactly one variant is
// set.
type Grantee struct {
	byID   bool
	userID int64
	email  string
}

func GranteeByEmail(email string) Grantee {
	return Grantee{email: email}
}

func GranteeByID(userID int64) Grantee {
	return Grantee{byID: true, userID: userID}
}

// UserID returns the id variant, if that is what this grantee carries.
func (g Grantee) UserID() (int64, bool) {
	return g.userID, g.byID
}

// Email returns the email variant, if that is what this grantee carries.
func (g Grantee) Email() (string, bool) {
	if g.byID {
		return "", false
	}
	return g.email, g.email != ""
}

type Share struct {
	ID         int64      `json:"id"`
	DocumentID int64      `json:"document_id"`
	Email      string     `json:"email"`
	UserID     *int64     `json:"user_id,omitempty"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AccessEntry is one row of a document's access list.
type AccessEntry struct {
	Email      string     `json:"email"`
	UserID     *int64     `json:"user_id,omitempty"`
	Permission Permission `json:"permission"`
}

type InviteRequest struct {
	DocumentID  int64  `json:"documentId"`
	Email       string `json:"email"`
	Permission  bool   `json:"permission"` // true = read-write
	InviterName string `json:"inviterName"`
	DocTitle    string `json:"docTitle"`
}

type ShareUpdateRequest struct {
	DocumentID int64  `json:"documentId"`
	Email      string `json:"email,omitempty"`
	UserID     *int64 `json:"userId,omitempty"`
	Permission bool   `json:"permission"`
}

type ShareDeleteRequest struct {
	DocumentID int64  `json:"documentId"`
	Email      string `json:"email,omitempty"`
	UserID     *int64 `json:"userId,omitempty"`
}
