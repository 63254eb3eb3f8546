package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsbrief/models"
)

// ClusterService reads sessions, clusters and their articles from the news
// database. Those tables are written by the upstream scraping and clustering
// pipeline; this service never writes them.
type ClusterService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewClusterService creates a new ClusterService instance.
func NewClusterService(db *gorm.DB, logger *zap.Logger) *ClusterService {
	return &ClusterService{DB: db, Logger: logger}
}

// Sessions returns all clustering sessions, newest first.
func (s *ClusterService) Sessions(ctx context.Context) ([]models.ClusteringSession, error) {
	var sessions []models.ClusteringSession
	if err := s.DB.WithContext(ctx).Order("session_start desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("fetching clustering sessions: %w", err)
	}
	return sessions, nil
}

// SessionByID returns one clustering session.
func (s *ClusterService) SessionByID(ctx context.Context, id uint) (*models.ClusteringSession, error) {
	var session models.ClusteringSession
	if err := s.DB.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// TopClusters returns the biggest clusters of a session, largest first.
func (s *ClusterService) TopClusters(ctx context.Context, sessionID uint, limit int) ([]models.Cluster, error) {
	query := s.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("articles_count desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var clusters []models.Cluster
	if err := query.Find(&clusters).Error; err != nil {
		return nil, fmt.Errorf("fetching clusters for session %d: %w", sessionID, err)
	}
	return clusters, nil
}

// ArticlesForCluster loads the cluster's articles and returns them in the
// cluster's stored order, closest to the cluster center first. Articles
// deleted since the clustering run are skipped. Downstream consumers rely on
// this order and must not re-sort.
func (s *ClusterService) ArticlesForCluster(ctx context.Context, cluster *models.Cluster) ([]*models.Article, error) {
	if len(cluster.ArticleIDs) == 0 {
		return nil, nil
	}

	var articles []*models.Article
	if err := s.DB.WithContext(ctx).Where("id IN ?", []uint(cluster.ArticleIDs)).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("fetching articles for cluster %d: %w", cluster.ID, err)
	}

	byID := make(map[uint]*models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	ordered := make([]*models.Article, 0, len(articles))
	for _, id := range cluster.ArticleIDs {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	if missing := len(cluster.ArticleIDs) - len(ordered); missing > 0 {
		s.Logger.Debug("Some cluster articles no longer exist",
			zap.Uint("cluster_id", cluster.ID),
			zap.Int("missing", missing))
	}
	return ordered, nil
}
