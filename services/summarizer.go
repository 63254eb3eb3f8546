package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"newsbrief/dedup"
	"newsbrief/llm"
)

const summarizerSystemPrompt = `You are a news analyst condensing articles for a newsletter editor.
Work in three steps: first write a very dense scratchpad of facts and ideas separated by commas, then list the facts you forgot to include, then write the final comprehensive summary covering both.
Return only the final summary, wrapped in <summary></summary> tags.`

const summarizerPromptTemplate = `Here is a set of news articles to summarize :

<articles>
%s
</articles>

Write a comprehensive summary of this content in %s language.
Include as much facts and ideas as possible in the summary.
Wrap the final summary in <summary></summary> tags.`

// summaryRe captures the tagged summary block in a model reply.
var summaryRe = regexp.MustCompile(`(?s)<summary>(.*?)</summary>`)

// Summarizer condenses a deduplicated article set into one comprehensive
// summary per cluster.
type Summarizer struct {
	LLM           llm.Provider
	Logger        *zap.Logger
	Language      string
	Temperature   float64
	ArticlesLimit int
}

// NewSummarizer creates a new Summarizer instance.
func NewSummarizer(provider llm.Provider, logger *zap.Logger, language string, temperature float64, articlesLimit int) *Summarizer {
	if articlesLimit <= 0 {
		articlesLimit = 100
	}
	return &Summarizer{
		LLM:           provider,
		Logger:        logger,
		Language:      language,
		Temperature:   temperature,
		ArticlesLimit: articlesLimit,
	}
}

// FormatArticles renders the set for the prompt: title, date, URL and body
// per article, blank line between articles. At most ArticlesLimit articles
// are included.
func (s *Summarizer) FormatArticles(set *dedup.UniqueArticleSet) string {
	limited := set.Limit(s.ArticlesLimit)
	blocks := make([]string, 0, limited.Len())
	for _, a := range limited.Articles() {
		blocks = append(blocks, fmt.Sprintf("%s\n%s\n%s\n%s",
			a.Title, a.PublishedAt.Format("2006-01-02"), a.URL, a.Body))
	}
	return strings.Join(blocks, "\n\n")
}

// Summarize produces the comprehensive summary for a deduplicated set.
func (s *Summarizer) Summarize(ctx context.Context, set *dedup.UniqueArticleSet) (string, error) {
	prompt := fmt.Sprintf(summarizerPromptTemplate, s.FormatArticles(set), s.Language)

	reply, err := s.LLM.Generate(ctx, llm.GenerateRequest{
		System:      summarizerSystemPrompt,
		Prompt:      prompt,
		Temperature: s.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("summarizing articles: %w", err)
	}

	s.Logger.Debug("Articles summarized",
		zap.Int("articles", set.Len()),
		zap.Int("reply_length", len(reply)))
	return extractSummary(reply), nil
}

// extractSummary pulls the tagged block out of the reply; replies without
// tags are returned trimmed as-is.
func extractSummary(reply string) string {
	if m := summaryRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}
