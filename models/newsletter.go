package models

import "time"

// Newsletter is one generated issue, persisted with its full markdown body.
type Newsletter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Session the issue was generated from
	SessionID uint   `json:"session_id" gorm:"index;not null"`
	Slug      string `json:"slug" gorm:"uniqueIndex"`
	Language  string `json:"language" gorm:"index"`

	// Generated content
	Body      string `json:"body" gorm:"type:text"`
	ModelUsed string `json:"model_used,omitempty"`

	TopicsCount          int `json:"topics_count"`
	MainTopicsCount      int `json:"main_topics_count"`
	SecondaryTopicsCount int `json:"secondary_topics_count"`

	// Editorial workflow
	Status      string     `json:"status" gorm:"index;default:'draft'"` // draft, review, published, archived
	PublishedAt *time.Time `json:"published_at,omitempty"`

	S3Link string `json:"s3_link,omitempty"`
}

// TableName gives the table name explicitly.
func (Newsletter) TableName() string {
	return "newsletters"
}
