package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClusteringSession records one clustering run over a window of scraped articles.
type ClusteringSession struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SessionStart time.Time  `json:"session_start"`
	SessionEnd   *time.Time `json:"session_end,omitempty"`

	// Publication window of the articles the run covered
	DataStart time.Time `json:"data_start"`
	DataEnd   time.Time `json:"data_end"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	// Number of articles the clustering ran on, noise included
	ArticlesCount int `json:"articles_count"`
	ClustersCount int `json:"clusters_count"`

	NoiseArticleIDs        datatypes.JSONSlice[uint] `json:"noise_article_ids" gorm:"type:jsonb"`
	NoiseArticlesCount     int                       `json:"noise_articles_count"`
	ClusteredArticlesCount int                       `json:"clustered_articles_count"`
}

// TableName names the table explicitly; it is owned by the clustering pipeline.
func (ClusteringSession) TableName() string {
	return "clustering_sessions"
}
