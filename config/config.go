// Package config loads process configuration once at startup. Nothing else
// in the application reads the environment; every component receives what it
// needs from the Config built here.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"notus/pkg/logger"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// AuthSecret validates session tokens. ShareInviteSecret signs share
	// invitation tokens and falls back to AuthSecret when unset.
	AuthSecret        string
	ShareInviteSecret string

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	// AppBaseURL is the public origin used to build confirmation links.
	AppBaseURL string
	ListenAddr string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := &Config{
		DBUser:            env("user"),
		DBPassword:        env("password"),
		DBHost:            env("host"),
		DBPort:            env("port"),
		DBName:            env("dbname"),
		AuthSecret:        env("AUTH_SECRET"),
		ShareInviteSecret: env("SHARE_INVITE_SECRET"),
		SMTPHost:          env("SMTP_HOST"),
		SMTPPort:          env("SMTP_PORT"),
		SMTPFrom:          env("SMTP_FROM"),
		AppBaseURL:        env("APP_BASE_URL"),
		ListenAddr:        env("LISTEN_ADDR"),
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is not set")
	}
	if cfg.ShareInviteSecret == "" {
		cfg.ShareInviteSecret = cfg.AuthSecret
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return cfg, nil
}

// ConnString builds the Postgres connection string the gateway opens.
func (c *Config) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
