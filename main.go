package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"newsbrief/config"
	"newsbrief/dedup"
	"newsbrief/llm"
	"newsbrief/models"
	"newsbrief/services"
	"newsbrief/storage"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	newslettersGeneratedCounter prometheus.Counter
	articlesDeduplicatedCounter prometheus.Counter
)

func init() {
	newslettersGeneratedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletters_generated_total",
			Help: "Total number of newsletters generated.",
		},
	)
	articlesDeduplicatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_deduplicated_total",
			Help: "Total number of duplicate articles dropped during deduplication.",
		},
	)
	prometheus.MustRegister(newslettersGeneratedCounter, articlesDeduplicatedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connections
	newsDB, err := gorm.Open(postgres.Open(cfg.NewsDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to news database", zap.Error(err))
	}
	logging.Info("Successfully connected to news database.")

	contentDB, err := gorm.Open(postgres.Open(cfg.ContentDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to content database", zap.Error(err))
	}
	logging.Info("Successfully connected to content database.")

	// Auto-Migration. Only the content database belongs to this service; the
	// news database is owned by the scraping and clustering pipeline.
	if gin.Mode() == gin.DebugMode {
		logging.Info("Debug mode detected. Dropping tables for fresh start.")
		contentDB.Migrator().DropTable(&models.Newsletter{})
	}
	logging.Info("Running database auto-migration...")
	contentDB.AutoMigrate(&models.Newsletter{})

	// Setup LLM Provider
	provider, err := llm.New(cfg)
	if err != nil {
		logging.Fatal("LLM provider setup failed", zap.Error(err))
	}
	logging.Info("LLM provider ready", zap.String("model", provider.ModelName()))

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	clusterService := services.NewClusterService(newsDB, logging)
	summarizer := services.NewSummarizer(provider, logging, cfg.NewsletterLanguage, cfg.LLMTemperature, cfg.ArticlesLimit)
	newsletterService := services.NewNewsletterService(cfg, contentDB, clusterService, summarizer, provider, s3Client, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupSessionRoutes(router, clusterService, logging)
	setupClusterRoutes(router, newsDB, clusterService, logging)
	setupNewsletterRoutes(router, contentDB, newsletterService, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled newsletter job...")
		count, err := newsletterService.RunForPendingSessions(context.Background())
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
		} else {
			logging.Info("Cron job completed", zap.Int("newsletters", count))
			newslettersGeneratedCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupSessionRoutes(router *gin.Engine, clusterService *services.ClusterService, log *zap.Logger) {
	rg := router.Group("/sessions")

	rg.GET("/", func(c *gin.Context) {
		sessions, err := clusterService.Sessions(c.Request.Context())
		if err != nil {
			log.Error("Database query for sessions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, sessions)
	})

	rg.GET("/:id", func(c *gin.Context) {
		sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		session, err := clusterService.SessionByID(c.Request.Context(), uint(sessionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			log.Error("DB error fetching session", zap.Uint64("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, session)
	})

	rg.GET("/:id/clusters", func(c *gin.Context) {
		sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		session, err := clusterService.SessionByID(c.Request.Context(), uint(sessionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			log.Error("DB error fetching session", zap.Uint64("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
				limit = v
			}
		}
		clusters, err := clusterService.TopClusters(c.Request.Context(), session.ID, limit)
		if err != nil {
			log.Error("Database query for session clusters failed", zap.Uint("session_id", session.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, clusters)
	})
}

func setupClusterRoutes(router *gin.Engine, db *gorm.DB, clusterService *services.ClusterService, log *zap.Logger) {
	rg := router.Group("/clusters")

	// Articles of a cluster after deduplication, in cluster order. Mainly a
	// debugging aid to inspect what the summarizer would actually see.
	rg.GET("/:id/articles", func(c *gin.Context) {
		id := c.Param("id")
		var cluster models.Cluster
		if err := db.First(&cluster, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
				return
			}
			log.Error("DB error fetching cluster", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		articles, err := clusterService.ArticlesForCluster(c.Request.Context(), &cluster)
		if err != nil {
			log.Error("Failed to load cluster articles", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		set := dedup.New(articles...)
		duplicates := len(articles) - set.Len()
		articlesDeduplicatedCounter.Add(float64(duplicates))

		unique := set
		if limitStr := c.Query("limit"); limitStr != "" {
			if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
				unique = set.Limit(limit)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"cluster_id":      cluster.ID,
			"total_count":     len(articles),
			"unique_count":    set.Len(),
			"duplicate_count": duplicates,
			"articles":        unique.Articles(),
		})
	})
}

func setupNewsletterRoutes(router *gin.Engine, db *gorm.DB, newsletterService *services.NewsletterService, log *zap.Logger) {
	rg := router.Group("/newsletters")

	rg.POST("/generate/:sessionID", func(c *gin.Context) {
		sessionID, err := strconv.ParseUint(c.Param("sessionID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		session, err := newsletterService.Clusters.SessionByID(c.Request.Context(), uint(sessionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			log.Error("DB error fetching session", zap.Uint64("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		go func() {
			newsletter, err := newsletterService.GenerateForSession(context.Background(), session)
			if err != nil {
				newsletterService.Logger.Error("Async newsletter generation failed", zap.Uint("session_id", session.ID), zap.Error(err))
			} else {
				newslettersGeneratedCounter.Inc()
				newsletterService.Logger.Info("Async newsletter generation completed",
					zap.Uint("session_id", session.ID), zap.String("slug", newsletter.Slug))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": fmt.Sprintf("Newsletter generation for session %d triggered.", session.ID)})
	})

	rg.POST("/generate-pending", func(c *gin.Context) {
		go func() {
			count, err := newsletterService.RunForPendingSessions(context.Background())
			if err != nil {
				newsletterService.Logger.Error("Async pending generation failed", zap.Error(err))
			} else {
				newslettersGeneratedCounter.Add(float64(count))
				newsletterService.Logger.Info("Async pending generation completed", zap.Int("newsletters", count))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Newsletter generation for pending sessions triggered."})
	})

	rg.GET("/", func(c *gin.Context) {
		var newsletters []models.Newsletter
		if err := db.Order("created_at desc").Find(&newsletters).Error; err != nil {
			log.Error("Database query for newsletters failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, newsletters)
	})

	rg.POST("/query", func(c *gin.Context) {
		type NewsletterQuery struct {
			SessionID uint   `json:"session_id"`
			Language  string `json:"language"`
			Status    string `json:"status"`
			Limit     int    `json:"limit"`
		}

		var req NewsletterQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Newsletter{})
		if req.SessionID != 0 {
			query = query.Where("session_id = ?", req.SessionID)
		}
		if req.Language != "" {
			query = query.Where("language = ?", req.Language)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var newsletters []models.Newsletter
		if err := query.Order("created_at desc").Find(&newsletters).Error; err != nil {
			log.Error("Database query for newsletters failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, newsletters)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var newsletter models.Newsletter
		if err := db.First(&newsletter, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "newsletter not found"})
				return
			}
			log.Error("DB error fetching newsletter", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, newsletter)
	})

	rg.PATCH("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var newsletter models.Newsletter
		if err := db.First(&newsletter, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "newsletter not found"})
				return
			}
			log.Error("DB error checking for newsletter on PATCH", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Only bind the fields that were sent to avoid overwriting the rest
		var payload struct {
			Status      *string    `json:"status"`
			PublishedAt *time.Time `json:"published_at"`
			S3Link      *string    `json:"s3_link"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if payload.Status != nil {
			updates["status"] = *payload.Status
			if *payload.Status == "published" && payload.PublishedAt == nil {
				updates["published_at"] = time.Now()
			}
		}
		if payload.PublishedAt != nil {
			updates["published_at"] = *payload.PublishedAt
		}
		if payload.S3Link != nil {
			updates["s3_link"] = *payload.S3Link
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if err := db.Model(&newsletter).Updates(updates).Error; err != nil {
			log.Error("Failed to update newsletter", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update newsletter"})
			return
		}
		c.JSON(http.StatusOK, newsletter)
	})
}
