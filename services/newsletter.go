package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsbrief/config"
	"newsbrief/dedup"
	"newsbrief/llm"
	"newsbrief/models"
	"newsbrief/storage"
)

// ErrNoTopics is returned when a session yields no usable cluster material.
var ErrNoTopics = errors.New("no topics could be built for session")

const newsletterSystemPrompt = `You are the editor of a daily news digest.
You write clean markdown newsletters that strictly follow the structure of the provided template, in the requested language.
Always wrap the finished newsletter in <newsletter></newsletter> tags.`

const newsletterPromptTemplate = `Write today's newsletter issue.

Here is the template showing the expected structure :

<newsletter_template>
%s
</newsletter_template>

Here are the main topics :

<main_topics>
%s
</main_topics>

Here are the secondary topics :

<secondary_topics>
%s
</secondary_topics>

The newsletter must be written in %s language.
Writing date : %s
The covered period goes from %s to %s.

Replace every placeholder of the template with real content built from the topics.
Return the finished newsletter wrapped in <newsletter></newsletter> tags.`

// TopicMaterial is the digest of one cluster: its comprehensive summary plus
// the source and image links taken from the leading retained article.
type TopicMaterial struct {
	ComprehensiveSummary string
	URL                  string
	ImageURL             string
}

// Format renders the topic block handed to the newsletter prompt.
func (t TopicMaterial) Format() string {
	return fmt.Sprintf("%s\nSource URL : %s\nImage URL : %s", t.ComprehensiveSummary, t.URL, t.ImageURL)
}

// NewsletterService turns clustering sessions into newsletter issues and
// persists them in the content database.
type NewsletterService struct {
	Config     *config.Config
	ContentDB  *gorm.DB
	Clusters   *ClusterService
	Summarizer *Summarizer
	LLM        llm.Provider
	S3Client   *s3.Client
	Logger     *zap.Logger
}

// NewNewsletterService creates a new NewsletterService instance.
func NewNewsletterService(cfg *config.Config, contentDB *gorm.DB, clusters *ClusterService, summarizer *Summarizer, provider llm.Provider, s3Client *s3.Client, logger *zap.Logger) *NewsletterService {
	return &NewsletterService{
		Config:     cfg,
		ContentDB:  contentDB,
		Clusters:   clusters,
		Summarizer: summarizer,
		LLM:        provider,
		S3Client:   s3Client,
		Logger:     logger,
	}
}

// TopicForCluster deduplicates the cluster's articles and condenses them
// into topic material. Returns nil when nothing usable remains.
func (n *NewsletterService) TopicForCluster(ctx context.Context, cluster *models.Cluster) (*TopicMaterial, error) {
	articles, err := n.Clusters.ArticlesForCluster(ctx, cluster)
	if err != nil {
		return nil, err
	}

	set := dedup.New(articles...)
	if set.Empty() {
		return nil, nil
	}
	n.Logger.Debug("Cluster articles deduplicated",
		zap.Uint("cluster_id", cluster.ID),
		zap.Int("input", len(articles)),
		zap.Int("retained", set.Len()))

	summary, err := n.Summarizer.Summarize(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("summarizing cluster %d: %w", cluster.ID, err)
	}

	retained := set.Articles()
	topic := &TopicMaterial{
		ComprehensiveSummary: summary,
		URL:                  retained[0].URL,
	}
	for _, a := range retained {
		if a.ImageURL != "" {
			topic.ImageURL = a.ImageURL
			break
		}
	}
	return topic, nil
}

// GenerateForSession builds one newsletter for the session, persists it and
// archives the markdown to S3. A failed upload is logged but not fatal; the
// row already holds the body.
func (n *NewsletterService) GenerateForSession(ctx context.Context, session *models.ClusteringSession) (*models.Newsletter, error) {
	log := n.Logger.With(zap.Uint("session_id", session.ID))
	log.Info("Starting newsletter generation")

	clusters, err := n.Clusters.TopClusters(ctx, session.ID, n.Config.MainTopics+n.Config.SecondaryTopics)
	if err != nil {
		return nil, err
	}

	var topics []TopicMaterial
	for i := range clusters {
		topic, err := n.TopicForCluster(ctx, &clusters[i])
		if err != nil {
			log.Error("Failed to build topic from cluster",
				zap.Uint("cluster_id", clusters[i].ID), zap.Error(err))
			continue
		}
		if topic == nil {
			log.Debug("Cluster yielded no articles after deduplication",
				zap.Uint("cluster_id", clusters[i].ID))
			continue
		}
		topics = append(topics, *topic)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w %d", ErrNoTopics, session.ID)
	}

	mainCount := n.Config.MainTopics
	if mainCount > len(topics) {
		mainCount = len(topics)
	}
	prompt := fmt.Sprintf(newsletterPromptTemplate,
		newsletterTemplate,
		formatTopics(topics[:mainCount]),
		formatTopics(topics[mainCount:]),
		n.Config.NewsletterLanguage,
		time.Now().Format("02 January 2006"),
		session.DataStart.Format("02 January 2006"),
		session.DataEnd.Format("02 January 2006"),
	)

	reply, err := n.LLM.Generate(ctx, llm.GenerateRequest{
		System:      newsletterSystemPrompt,
		Prompt:      prompt,
		Temperature: n.Config.LLMTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating newsletter for session %d: %w", session.ID, err)
	}
	body := ParseNewsletterOutput(reply)

	newsletter := &models.Newsletter{
		SessionID:            session.ID,
		Slug:                 newsletterSlug(),
		Language:             n.Config.NewsletterLanguage,
		Body:                 body,
		ModelUsed:            n.LLM.ModelName(),
		TopicsCount:          len(topics),
		MainTopicsCount:      mainCount,
		SecondaryTopicsCount: len(topics) - mainCount,
		Status:               "draft",
	}
	if err := n.ContentDB.WithContext(ctx).Create(newsletter).Error; err != nil {
		return nil, fmt.Errorf("saving newsletter for session %d: %w", session.ID, err)
	}

	if n.S3Client != nil {
		key := fmt.Sprintf("newsletters/%s.md", newsletter.Slug)
		link, err := storage.UploadFile(ctx, n.S3Client, n.Config.StratoS3Bucket, key, []byte(body), "text/markdown", n.Config)
		if err != nil {
			log.Error("S3 upload of newsletter failed", zap.Error(err))
		} else {
			newsletter.S3Link = link
			if err := n.ContentDB.WithContext(ctx).Model(newsletter).Update("s3_link", link).Error; err != nil {
				log.Warn("Failed to store S3 link", zap.Error(err))
			}
		}
	}

	log.Info("Newsletter generated",
		zap.String("slug", newsletter.Slug),
		zap.Int("topics", len(topics)),
		zap.String("model", newsletter.ModelUsed))
	return newsletter, nil
}

// PendingSessions returns the sessions that have no newsletter in the
// configured language yet, oldest first.
func (n *NewsletterService) PendingSessions(ctx context.Context) ([]models.ClusteringSession, error) {
	var done []uint
	if err := n.ContentDB.WithContext(ctx).
		Model(&models.Newsletter{}).
		Where("language = ?", n.Config.NewsletterLanguage).
		Distinct().
		Pluck("session_id", &done).Error; err != nil {
		return nil, fmt.Errorf("fetching generated session ids: %w", err)
	}

	query := n.Clusters.DB.WithContext(ctx).Order("session_start asc")
	if len(done) > 0 {
		query = query.Where("id NOT IN ?", done)
	}
	var sessions []models.ClusteringSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("fetching pending sessions: %w", err)
	}
	return sessions, nil
}

// RunForPendingSessions generates a newsletter for every pending session.
// A failing session is logged and skipped; the run continues. Returns the
// number of newsletters generated.
func (n *NewsletterService) RunForPendingSessions(ctx context.Context) (int, error) {
	sessions, err := n.PendingSessions(ctx)
	if err != nil {
		return 0, err
	}

	generated := 0
	for i := range sessions {
		if _, err := n.GenerateForSession(ctx, &sessions[i]); err != nil {
			n.Logger.Error("Newsletter generation failed for session",
				zap.Uint("session_id", sessions[i].ID), zap.Error(err))
			continue
		}
		generated++
	}
	return generated, nil
}

// formatTopics joins topic blocks with blank lines for the prompt.
func formatTopics(topics []TopicMaterial) string {
	blocks := make([]string, 0, len(topics))
	for _, t := range topics {
		blocks = append(blocks, t.Format())
	}
	return strings.Join(blocks, "\n\n")
}

// newsletterSlug builds a unique, date-prefixed slug for an issue.
func newsletterSlug() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("2006-01-02"), uuid.NewString()[:8])
}
