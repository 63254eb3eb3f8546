package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"newsbrief/config"
	"newsbrief/llm"
	"newsbrief/models"
	"newsbrief/services"
	"newsbrief/storage"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// One-shot newsletter run. Generates an issue for every pending clustering
// session (or a single session via -session) and writes the markdown body
// next to the database record, for local inspection and manual publishing.
func main() {
	sessionFlag := flag.Uint64("session", 0, "generate for this clustering session only, instead of all pending sessions")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	newsDB, err := gorm.Open(postgres.Open(cfg.NewsDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to news database", zap.Error(err))
	}

	contentDB, err := gorm.Open(postgres.Open(cfg.ContentDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to content database", zap.Error(err))
	}
	contentDB.AutoMigrate(&models.Newsletter{})

	provider, err := llm.New(cfg)
	if err != nil {
		logging.Fatal("LLM provider setup failed", zap.Error(err))
	}
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	clusterService := services.NewClusterService(newsDB, logging)
	summarizer := services.NewSummarizer(provider, logging, cfg.NewsletterLanguage, cfg.LLMTemperature, cfg.ArticlesLimit)
	newsletterService := services.NewNewsletterService(cfg, contentDB, clusterService, summarizer, provider, s3Client, logging)

	ctx := context.Background()

	var sessions []models.ClusteringSession
	if *sessionFlag != 0 {
		session, err := clusterService.SessionByID(ctx, uint(*sessionFlag))
		if err != nil {
			logging.Fatal("Failed to load clustering session", zap.Uint64("session_id", *sessionFlag), zap.Error(err))
		}
		sessions = []models.ClusteringSession{*session}
	} else {
		sessions, err = newsletterService.PendingSessions(ctx)
		if err != nil {
			logging.Fatal("Failed to load pending sessions", zap.Error(err))
		}
	}
	if len(sessions) == 0 {
		logging.Info("No pending sessions, nothing to do.")
		return
	}
	logging.Info("Starting newsletter run", zap.Int("sessions", len(sessions)))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logging.Fatal("Failed to create output directory", zap.String("dir", cfg.OutputDir), zap.Error(err))
	}

	generated := 0
	for i := range sessions {
		session := &sessions[i]
		newsletter, err := newsletterService.GenerateForSession(ctx, session)
		if err != nil {
			logging.Error("Newsletter generation failed", zap.Uint("session_id", session.ID), zap.Error(err))
			continue
		}

		name := fmt.Sprintf("%s_%d.md", time.Now().Format("2006-01-02-15-04-05"), session.ID)
		path := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(path, []byte(newsletter.Body), 0o644); err != nil {
			logging.Error("Failed to write newsletter file", zap.String("path", path), zap.Error(err))
			continue
		}
		logging.Info("Newsletter written",
			zap.Uint("session_id", session.ID),
			zap.String("slug", newsletter.Slug),
			zap.String("path", path))
		generated++
	}

	logging.Info("Newsletter run completed", zap.Int("generated", generated), zap.Int("sessions", len(sessions)))
}
