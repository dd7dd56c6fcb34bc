package main

import (
	"time"

	"blogd/config"
	"blogd/models"
	"blogd/routes"
	"blogd/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(cfg,
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.SavedPost{},
	)

	utils.InitRedis(cfg)

	// Idempotent bootstrap: make sure one admin account exists.
	if err := models.EnsureAdmin(db, cfg.AdminName, cfg.AdminEmail, "0000000000", cfg.AdminPassword); err != nil {
		utils.Sugar.Fatalf("admin bootstrap failed: %v", err)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	r := routes.SetupRouter(db, cfg, tokens)

	utils.Sugar.Infof("starting server on port %s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
