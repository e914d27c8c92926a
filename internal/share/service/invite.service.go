package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"notus/internal/share/model"
	"notus/pkg/apperr"
	"notus/pkg/logger"
	"notus/pkg/mailer"
)

// inviteTTL is the validity window of an invitation token. The window is the
// token's sole lifecycle control; nothing is persisted for a pending invite.
const inviteTTL = 48 * time.Hour

// inviteClaims is the signed payload of a share invitation. Field names are
// part of the confirmation-link format.
type inviteClaims struct {
	DocumentID int64  `json:"id_doc"`
	Email      string `json:"email"`
	ReadWrite  bool   `json:"permission"`
	jwt.RegisteredClaims
}

// Notifier is the best-effort side channel fired after a confirmed share.
// Implementations must never fail the caller.
type Notifier interface {
	ShareConfirmed(senderID int64, receiverEmail string, docID int64, docTitle string, permission model.Permission)
}

// InviteService issues and confirms share invitations. An invite is a signed
// capability: confirming it materializes the share, expiry or a bad signature
// rejects it, and there is no revoke path before expiry.
type InviteService struct {
	Access   *AccessService
	Mail     mailer.Mailer
	Notifier Notifier

	secret  []byte
	baseURL string
	now     func() time.Time
}

func NewInviteService(access *AccessService, mail mailer.Mailer, notifier Notifier, secret []byte, baseURL string) *InviteService {
	return &InviteService{
		Access:   access,
		Mail:     mail,
		Notifier: notifier,
		secret:   secret,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// CreateInvite signs an invitation token for granteeEmail and emails the
// confirmation link. Only the document's owner may invite. A failed send
// fails the call: the invite would otherwise be undeliverable.
func (s *InviteService) CreateInvite(ctx context.Context, docID int64, granteeEmail string, permission model.Permission, inviterID int64, inviterName, docTitle string) (string, error) {
	if granteeEmail == "" || !permission.Valid() {
		return "", fmt.Errorf("%w: email and permission required", apperr.ErrValidation)
	}
	isOwner, err := s.Access.IsOwner(docID, inviterID)
	if err != nil {
		return "", err
	}
	if !isOwner {
		return "", fmt.Errorf("%w: only the owner can invite", apperr.ErrForbidden)
	}

	issuedAt := s.now()
	claims := inviteClaims{
		DocumentID: docID,
		Email:      granteeEmail,
		ReadWrite:  permission.ReadWrite(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(inviteTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}

	confirmURL := fmt.Sprintf("%s/api/confirm-share?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"%s invited you to collaborate on %q.\n\nOpen the link below to accept. The link is valid for 2 days.\n\n%s\n",
		inviterName, docTitle, confirmURL)
	if err := s.Mail.Send(ctx, granteeEmail, fmt.Sprintf("Invitation to %q", docTitle), body); err != nil {
		logger.Sugar.Errorf("Failed to send invite mail for doc %d to %s: %v", docID, granteeEmail, err)
		return "", fmt.Errorf("%w: mail delivery failed", apperr.ErrInternal)
	}
	return token, nil
}

// ConfirmInvite verifies the token and materializes the share. Confirming
// the same valid link twice lands on the same share state.
func (s *InviteService) ConfirmInvite(ctx context.Context, token string) (model.Share, error) {
	claims := &inviteClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return model.Share{}, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}
	if claims.DocumentID == 0 || claims.Email == "" {
		return model.Share{}, fmt.Errorf("%w: missing invite fields", apperr.ErrMalformedToken)
	}

	// The document must still exist at confirmation time; a purged document
	// cannot be joined through a stale link.
	ownerID, docTitle, err := s.Access.Repo.DocumentInfo(claims.DocumentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Share{}, fmt.Errorf("%w: document %d", apperr.ErrNotFound, claims.DocumentID)
	}
	if err != nil {
		return model.Share{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}

	permission := model.PermissionFromBool(claims.ReadWrite)
	share, err := s.Access.AddShare(claims.DocumentID, claims.Email, permission)
	if err != nil {
		return model.Share{}, err
	}

	if s.Notifier != nil {
		s.Notifier.ShareConfirmed(ownerID, claims.Email, claims.DocumentID, docTitle, permission)
	}
	return share, nil
}
