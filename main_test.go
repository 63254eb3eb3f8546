package main

import (
	"net/http"
	"net/http/httptest"
	"newsbrief/config"
	"newsbrief/services"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// testRouter registers the HTTP routes the way main does, with no database
// behind the services. Tests below only exercise paths that return before any
// query runs.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	clusterService := services.NewClusterService(nil, log)
	summarizer := services.NewSummarizer(nil, log, "english", 0.3, 100)
	newsletterService := services.NewNewsletterService(&config.Config{}, nil, clusterService, summarizer, nil, nil, log)

	router := gin.New()
	setupSessionRoutes(router, clusterService, log)
	setupClusterRoutes(router, nil, clusterService, log)
	setupNewsletterRoutes(router, nil, newsletterService, log)
	return router
}

func TestRegisteredRoutes(t *testing.T) {
	router := testRouter()

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /sessions/",
		"GET /sessions/:id",
		"GET /sessions/:id/clusters",
		"GET /clusters/:id/articles",
		"POST /newsletters/generate/:sessionID",
		"POST /newsletters/generate-pending",
		"GET /newsletters/",
		"POST /newsletters/query",
		"GET /newsletters/:id",
		"PATCH /newsletters/:id",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestSessionRoutesRejectInvalidID(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/sessions/abc", "/sessions/abc/clusters"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("GET %s status = %d, want %d", path, w.Code, http.StatusBadRequest)
			}
			if !strings.Contains(w.Body.String(), "invalid session id") {
				t.Errorf("GET %s body = %q, want the invalid-id error", path, w.Body.String())
			}
		})
	}
}

func TestGenerateRouteRejectsInvalidSessionID(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/newsletters/generate/notanumber", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
