package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"newsbrief/dedup"
	"newsbrief/llm"
	"newsbrief/models"
)

var testDay = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// fakeProvider records the last request and returns a canned reply.
type fakeProvider struct {
	reply      string
	err        error
	lastSystem string
	lastPrompt string
}

func (f *fakeProvider) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	f.lastSystem = req.System
	f.lastPrompt = req.Prompt
	return f.reply, f.err
}

func (f *fakeProvider) ModelName() string { return "fake-model" }

func testSet() *dedup.UniqueArticleSet {
	return dedup.New(
		&models.Article{ID: 1, URL: "https://example.com/a", Title: "Story A", Body: "body a", PublishedAt: testDay},
		&models.Article{ID: 2, URL: "https://example.com/b", Title: "Story B", Body: "body b", PublishedAt: testDay},
	)
}

func TestFormatArticles(t *testing.T) {
	s := NewSummarizer(&fakeProvider{}, zap.NewNop(), "en", 0.3, 100)

	got := s.FormatArticles(testSet())
	want := "Story A\n2026-03-14\nhttps://example.com/a\nbody a\n\nStory B\n2026-03-14\nhttps://example.com/b\nbody b"
	if got != want {
		t.Errorf("FormatArticles() = %q, want %q", got, want)
	}
}

func TestFormatArticlesAppliesLimit(t *testing.T) {
	s := NewSummarizer(&fakeProvider{}, zap.NewNop(), "en", 0.3, 1)

	got := s.FormatArticles(testSet())
	if !strings.Contains(got, "Story A") {
		t.Errorf("FormatArticles() = %q, want it to contain the first article", got)
	}
	if strings.Contains(got, "Story B") {
		t.Errorf("FormatArticles() = %q, must not contain articles beyond the limit", got)
	}
}

func TestSummarize(t *testing.T) {
	fake := &fakeProvider{reply: "Sure!\n<summary>\nDense summary here.\n</summary>\nHope that helps."}
	s := NewSummarizer(fake, zap.NewNop(), "en", 0.3, 100)

	got, err := s.Summarize(context.Background(), testSet())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Dense summary here." {
		t.Errorf("Summarize() = %q, want %q", got, "Dense summary here.")
	}
	if !strings.Contains(fake.lastPrompt, "<articles>") {
		t.Error("prompt misses the articles block")
	}
	if !strings.Contains(fake.lastPrompt, "Story A") {
		t.Error("prompt misses the formatted articles")
	}
	if !strings.Contains(fake.lastPrompt, "in en language") {
		t.Error("prompt misses the language instruction")
	}
}

func TestSummarizeWithoutTagsFallsBack(t *testing.T) {
	fake := &fakeProvider{reply: "  Just a plain summary.\n"}
	s := NewSummarizer(fake, zap.NewNop(), "en", 0.3, 100)

	got, err := s.Summarize(context.Background(), testSet())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Just a plain summary." {
		t.Errorf("Summarize() = %q, want the trimmed raw reply", got)
	}
}

func TestSummarizeWrapsProviderError(t *testing.T) {
	fake := &fakeProvider{err: errors.New("rate limited")}
	s := NewSummarizer(fake, zap.NewNop(), "en", 0.3, 100)

	_, err := s.Summarize(context.Background(), testSet())
	if err == nil {
		t.Fatal("Summarize() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "summarizing articles") {
		t.Errorf("Summarize() error = %q, want it to contain %q", err, "summarizing articles")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Summarize() error = %q, want it to wrap the provider error", err)
	}
}
