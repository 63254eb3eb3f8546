package models

import (
	"time"
)

// Article is one scraped news article as delivered by the ingestion pipeline.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL   string `json:"url" gorm:"uniqueIndex;not null"`
	Title string `json:"title" gorm:"not null"`
	Body  string `json:"body" gorm:"type:text"`

	// Publication timestamp; only the calendar date matters for identity
	PublishedAt time.Time `json:"published_at" gorm:"index"`

	// Payload carried through the processing stages untouched
	ImageURL string `json:"image_url,omitempty"`
	Source   string `json:"source,omitempty" gorm:"index"`
	Language string `json:"language,omitempty"`
}

// TableName names the table explicitly; it is owned by the scraping pipeline.
func (Article) TableName() string {
	return "articles"
}
