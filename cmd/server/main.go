package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/api"
	"adcopy-engine/backend/internal/config"
	"adcopy-engine/backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir(), 0o755); err != nil {
		logrus.Fatalf("create storage directory: %v", err)
	}

	server, err := api.NewServer(api.Config{
		DBPath:              cfg.DBPath,
		StorageRoot:         cfg.StorageRoot,
		PublicURL:           cfg.PublicURL,
		MaxFileBytes:        cfg.MaxFileBytes(),
		AllowedOrigins:      cfg.AllowedOrigins,
		AIConfig:            cfg.AI(),
		FallbackModel:       cfg.FallbackModel,
		DisableAI:           cfg.DisableAI,
		PersonaTablePath:    cfg.PersonaTablePath,
		BannedTermsPath:     cfg.BannedTermsPath,
		DiversityK:          cfg.DiversityK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		RefineTimeout:       cfg.RefineTimeout,
		GenerateTimeout:     cfg.GenerateTimeout,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer func() {
		if cerr := server.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close database")
		}
	}()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.Infof("starting adcopy backend on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
