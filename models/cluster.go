package models

import (
	"time"

	"gorm.io/datatypes"
)

// Cluster groups the articles that tell one story within a clustering session.
type Cluster struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SessionID uint `json:"session_id" gorm:"index;not null"`

	ArticlesCount int `json:"articles_count"`
	// Sorted by distance to the cluster center, closest first
	ArticleIDs datatypes.JSONSlice[uint] `json:"article_ids" gorm:"type:jsonb"`

	// AI generated overview, empty until the overview job has run
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty" gorm:"type:text"`

	OverviewGenerationError string `json:"overview_generation_error,omitempty"`
}

// TableName names the table explicitly; it is owned by the clustering pipeline.
func (Cluster) TableName() string {
	return "clusters"
}
