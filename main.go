package main

import (
	"net/http"

	"notus/config"
	"notus/config/database"
	"notus/pkg/logger"
	"notus/pkg/mailer"
	"notus/router"
	"notus/socket"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar.Fatalf("Failed to load configuration: %v", err)
	}

	db := database.Connect(cfg.ConnString())
	defer db.Close()

	var mail mailer.Mailer = mailer.LogOnly{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	}

	access := router.Build(db)
	hub := socket.NewHub(db, access)
	go hub.Run()
	go hub.SaveWorker()

	handler := router.Setup(cfg, db, hub, access, mail)

	logger.Sugar.Infof("Notus backend listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
