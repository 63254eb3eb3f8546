package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime parameter, loaded from environment variables.
type Config struct {
	// News database: articles, clusters and sessions written by the
	// scraping/clustering pipeline. Read-only for this service.
	NewsDBHost     string `envconfig:"NEWS_DB_HOST" required:"true"`
	NewsDBPort     int    `envconfig:"NEWS_DB_PORT" default:"5432"`
	NewsDBUser     string `envconfig:"NEWS_DB_USER" required:"true"`
	NewsDBPassword string `envconfig:"NEWS_DB_PASSWORD" required:"true"`
	NewsDBName     string `envconfig:"NEWS_DB_NAME" required:"true"`

	// Content database: newsletters, owned and migrated by this service.
	ContentDBHost     string `envconfig:"CONTENT_DB_HOST" required:"true"`
	ContentDBPort     int    `envconfig:"CONTENT_DB_PORT" default:"5432"`
	ContentDBUser     string `envconfig:"CONTENT_DB_USER" required:"true"`
	ContentDBPassword string `envconfig:"CONTENT_DB_PASSWORD" required:"true"`
	ContentDBName     string `envconfig:"CONTENT_DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 6 * * *"`

	// LLM provider selection: "cohere" or "openai"
	LLMProvider    string  `envconfig:"LLM_PROVIDER" default:"cohere"`
	CohereAPIKey   string  `envconfig:"COHERE_API_KEY"`
	CohereModel    string  `envconfig:"COHERE_MODEL" default:"command-r-plus"`
	OpenAIAPIKey   string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIOrgID    string  `envconfig:"OPENAI_ORG_ID"`
	LLMTemperature float64 `envconfig:"LLM_TEMPERATURE" default:"0.3"`

	// Newsletter composition
	NewsletterLanguage string `envconfig:"NEWSLETTER_LANGUAGE" default:"en"`
	MainTopics         int    `envconfig:"NEWSLETTER_MAIN_TOPICS" default:"5"`
	SecondaryTopics    int    `envconfig:"NEWSLETTER_SECONDARY_TOPICS" default:"5"`
	ArticlesLimit      int    `envconfig:"SUMMARY_ARTICLES_LIMIT" default:"100"`
	OutputDir          string `envconfig:"OUTPUT_DIR" default:"output"`

	StratoS3Key    string `envconfig:"STRATO_S3_KEY" required:"true"`
	StratoS3Secret string `envconfig:"STRATO_S3_SECRET" required:"true"`
	StratoS3URL    string `envconfig:"STRATO_S3_URL" required:"true"`
	StratoS3Region string `envconfig:"STRATO_S3_REGION" required:"true"`
	StratoS3Bucket string `envconfig:"STRATO_S3_BUCKET" required:"true"`
}

// NewsDSN returns the Data Source Name for the news database.
func (c *Config) NewsDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.NewsDBHost, c.NewsDBUser, c.NewsDBPassword, c.NewsDBName, c.NewsDBPort)
}

// ContentDSN returns the Data Source Name for the content database.
func (c *Config) ContentDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.ContentDBHost, c.ContentDBUser, c.ContentDBPassword, c.ContentDBName, c.ContentDBPort)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
