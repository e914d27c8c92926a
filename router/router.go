package router

import (
	"database/sql"
	"net/http"

	"notus/config"
	docHandler "notus/internal/document"
	docRepo "notus/internal/document/repository"
	docService "notus/internal/document/service"
	dossierHandler "notus/internal/dossier"
	dossierRepo "notus/internal/dossier/repository"
	dossierService "notus/internal/dossier/service"
	notifHandler "notus/internal/notification"
	notifRepo "notus/internal/notification/repository"
	notifService "notus/internal/notification/service"
	shareHandler "notus/internal/share"
	shareRepo "notus/internal/share/repository"
	shareService "notus/internal/share/service"
	"notus/middleware"
	"notus/pkg/mailer"
	"notus/socket"
)

// Setup wires repositories, services and handlers and returns the root
// handler. The hub passed in must have been built around the same access
// service Build returns; use Build from main.
func Setup(cfg *config.Config, db *sql.DB, hub *socket.Hub, access *shareService.AccessService, mail mailer.Mailer) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.NewAuth([]byte(cfg.AuthSecret))

	// WebSocket: document rooms and notification feeds.
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		socket.ServeWs(hub, w, r, userID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// Notifications (also the invite flow's side channel).
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), hub)
	nh := notifHandler.NewNotificationHandler(notifications)

	// Sharing: access model + invitation flow.
	invites := shareService.NewInviteService(access, mail, notifications,
		[]byte(cfg.ShareInviteSecret), cfg.AppBaseURL)
	sh := shareHandler.NewShareHandler(access, invites)

	// Documents.
	documents := docService.NewDocumentService(docRepo.NewDocumentRepository(db), access, hub)
	dh := docHandler.NewDocumentHandler(documents)

	// Dossiers.
	dossiers := dossierService.NewDossierService(dossierRepo.NewDossierRepository(db), access)
	fh := dossierHandler.NewDossierHandler(dossiers)

	mux.Handle("/api/invite-share", auth(http.HandlerFunc(sh.InviteShare)))
	mux.Handle("/api/confirm-share", http.HandlerFunc(sh.ConfirmShare)) // token-carrying, no session
	mux.Handle("/api/openDoc/share", auth(http.HandlerFunc(sh.UpdateShare)))
	mux.Handle("/api/openDoc/share/delete", auth(http.HandlerFunc(sh.DeleteShare)))
	mux.Handle("/api/openDoc/accessList", auth(http.HandlerFunc(sh.AccessList)))

	mux.Handle("/api/documents/create", auth(http.HandlerFunc(dh.CreateDocument)))
	mux.Handle("/api/documents", auth(http.HandlerFunc(dh.GetDocuments)))
	mux.Handle("/api/documents/get", auth(http.HandlerFunc(dh.GetDocument)))
	mux.Handle("/api/documents/update", auth(http.HandlerFunc(dh.UpdateDocument)))
	mux.Handle("/api/documents/delete", auth(http.HandlerFunc(dh.DeleteDocument)))
	mux.Handle("/api/documents/trash", auth(http.HandlerFunc(dh.GetTrash)))
	mux.Handle("/api/documents/restore", auth(http.HandlerFunc(dh.RestoreDocument)))
	mux.Handle("/api/documents/purge", auth(http.HandlerFunc(dh.PurgeDocument)))

	mux.Handle("/api/notifications", auth(http.HandlerFunc(nh.List)))
	mux.Handle("/api/notifications/read", auth(http.HandlerFunc(nh.MarkRead)))
	mux.Handle("/api/notifications/delete", auth(http.HandlerFunc(nh.Delete)))

	mux.Handle("/api/dossiers/create", auth(http.HandlerFunc(fh.Create)))
	mux.Handle("/api/dossiers", auth(http.HandlerFunc(fh.List)))
	mux.Handle("/api/dossiers/update", auth(http.HandlerFunc(fh.Rename)))
	mux.Handle("/api/dossiers/delete", auth(http.HandlerFunc(fh.Delete)))
	mux.Handle("/api/dossiers/documents/add", auth(http.HandlerFunc(fh.AddDocument)))
	mux.Handle("/api/dossiers/documents/remove", auth(http.HandlerFunc(fh.RemoveDocument)))
	mux.Handle("/api/dossiers/documents", auth(http.HandlerFunc(fh.ListDocuments)))

	return middleware.CORSMiddleware(mux)
}

// Build constructs the share access service; main needs it before the hub
// exists because the hub checks room permissions through it.
func Build(db *sql.DB) *shareService.AccessService {
	return shareService.NewAccessService(shareRepo.NewShareRepository(db))
}
