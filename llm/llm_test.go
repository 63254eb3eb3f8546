package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsbrief/config"
)

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantErr   string
		wantModel string
	}{
		{
			name:      "cohere configured",
			cfg:       config.Config{LLMProvider: "cohere", CohereAPIKey: "key", CohereModel: "command-r-plus"},
			wantModel: "command-r-plus",
		},
		{
			name:      "openai configured",
			cfg:       config.Config{LLMProvider: "openai", OpenAIAPIKey: "key", OpenAIModel: "gpt-4o-mini"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:    "cohere without key",
			cfg:     config.Config{LLMProvider: "cohere"},
			wantErr: "COHERE_API_KEY",
		},
		{
			name:    "openai without key",
			cfg:     config.Config{LLMProvider: "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			cfg:     config.Config{LLMProvider: "llama"},
			wantErr: "unknown llm provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(&tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("New() error = nil, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("New() error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.ModelName() != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", p.ModelName(), tt.wantModel)
			}
		})
	}
}

func TestNewProviderNotConfiguredSentinel(t *testing.T) {
	_, err := New(&config.Config{LLMProvider: "cohere"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New() error = %v, want ErrNotConfigured", err)
	}
}

func TestOpenAIChatGenerate(t *testing.T) {
	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"the reply"}}]}`)
	}))
	defer server.Close()

	chat := NewOpenAIChat("test-key", "gpt-4o-mini", "")
	chat.endpoint = server.URL

	got, err := chat.Generate(context.Background(), GenerateRequest{
		System:      "be brief",
		Prompt:      "hello",
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "the reply" {
		t.Errorf("Generate() = %q, want %q", got, "the reply")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer test-key")
	}
	if !strings.Contains(gotBody, `"role":"system"`) {
		t.Errorf("request body %q misses the system message", gotBody)
	}
	if !strings.Contains(gotBody, `"content":"hello"`) {
		t.Errorf("request body %q misses the user prompt", gotBody)
	}
}

func TestOpenAIChatGenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	chat := NewOpenAIChat("test-key", "gpt-4o-mini", "")
	chat.endpoint = server.URL

	_, err := chat.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	if err == nil {
		t.Fatal("Generate() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Generate() error = %q, want it to contain %q", err, "status 500")
	}
}

func TestOpenAIChatGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	chat := NewOpenAIChat("test-key", "gpt-4o-mini", "")
	chat.endpoint = server.URL

	_, err := chat.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	if err == nil {
		t.Fatal("Generate() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("Generate() error = %q, want it to contain %q", err, "no choices")
	}
}
