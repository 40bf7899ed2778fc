package handlers

import (
	"errors"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Setup opens the database, seeds the admin account and returns a router
// with every route mounted. Used by both the server binary and the
// serverless entry point.
func Setup(cfg *config.Config) (*gin.Engine, error) {
	if cfg.APIMasterSecret == "" {
		return nil, errors.New("API_MASTER_SECRET is not set")
	}
	log := logger.GetDefault()
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; admin tokens are signed with an empty key")
	}

	db, err := database.Open(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		DataPath:    cfg.DataPath,
		Verbose:     cfg.LogLevel == string(logger.DebugLevel),
	})
	if err != nil {
		return nil, err
	}

	a := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	created, err := a.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	New(db, a, cfg).Register(r)
	return r, nil
}
