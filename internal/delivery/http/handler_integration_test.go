package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/optiprice/backend/config"
	"github.com/optiprice/backend/internal/domain"
	"github.com/optiprice/backend/internal/infrastructure/embedding"
	"github.com/optiprice/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
		},
		Rainforest: config.RainforestConfig{
			APIKey:  "test-api-key",
			BaseURL: "https://api.rainforestapi.com",
		},
		Cache: config.CacheConfig{
			Type: "none",
		},
	}
}

// setupTestRouter creates a test router without a matcher
func setupTestRouter() *gin.Engine {
	// nil matcher - handler returns 501 for match requests
	handler := NewHandler(nil, "")
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := SetupRouter(testConfig(), NewHandler(nil, "lexical"))

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "optiprice-backend" {
			t.Errorf("service = %v, want optiprice-backend", response["service"])
		}
		if response["strategy"] != "lexical" {
			t.Errorf("strategy = %v, want lexical", response["strategy"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("sets a request ID", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) == "" {
			t.Errorf("%s header missing", RequestIDHeader)
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestMatchEndpoint tests the competitor match endpoint without a matcher
func TestMatchEndpoint(t *testing.T) {
	t.Run("returns not implemented status", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"keyword":"Bodenstuhl","description":"Bodenstuhl 14 Stufen"}`
		req, _ := http.NewRequest("POST", "/api/v1/competitors/match", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		errorMsg, ok := response["error"].(string)
		if !ok {
			t.Errorf("error field is not a string: %v", response["error"])
		} else if !strings.Contains(errorMsg, "not configured") {
			t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
		}
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/api/v1/competitors/match", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("requires correct path", func(t *testing.T) {
		router := setupTestRouter()

		incorrectPaths := []string{
			"/api/v1/competitors",
			"/api/v1/competitors/",
			"/api/competitors/match",
			"/competitors/match",
		}

		for _, path := range incorrectPaths {
			req, _ := http.NewRequest("POST", path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for Chrome extension", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "chrome-extension://abcdefghijklmnop" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "chrome-extension://abcdefghijklmnop")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("match endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/competitors/match", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		// This should not crash the test - recovery middleware should handle it
		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/competitors/match", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// Should return 501 Not Implemented, not 404 Not Found
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/competitors/match", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/competitors/match"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}

// --- Mock implementations for testing with CompetitorService ---

type mockSearchClient struct {
	results []domain.Candidate
	err     error
}

func (m *mockSearchClient) Search(ctx context.Context, keyword string, limit int) ([]domain.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockDetailClient struct {
	details map[string]*domain.ProductText
}

func (m *mockDetailClient) FetchDetail(ctx context.Context, id string) (*domain.ProductText, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDetailUnavailable, id)
	}
	return detail, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }

func (failingEmbedder) Embed(ctx context.Context, batch []string) ([]domain.EmbeddingVector, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

type stubMatcher struct {
	err error
}

func (s stubMatcher) FindBestMatch(ctx context.Context, myDescription, keyword string) (*domain.MatchResult, error) {
	return nil, s.err
}

func chairSearch() *mockSearchClient {
	return &mockSearchClient{results: []domain.Candidate{
		{ID: "B001", Title: "Gaming Stuhl", Price: domain.Price{Amount: 129.99, Currency: "EUR"}},
		{ID: "B002", Title: "Bodenstuhl", Price: domain.Price{Amount: 59.99, Currency: "EUR"}},
	}}
}

func chairDetails() *mockDetailClient {
	return &mockDetailClient{details: map[string]*domain.ProductText{
		"B001": {Title: "Gaming Stuhl", Bullets: []string{"Ergonomisch mit Rollen und Armlehnen"}},
		"B002": {Title: "Bodenstuhl", Bullets: []string{"14 Stufen einstellbar", "Faltbar und gepolstert"}},
	}}
}

// setupTestRouterWithService creates a test router with a real CompetitorService using mocks
func setupTestRouterWithService(search domain.SearchClient, detail domain.DetailClient, embedder domain.EmbeddingProvider) *gin.Engine {
	service := usecase.NewCompetitorService(search, detail, embedder, usecase.CompetitorServiceConfig{
		CandidateLimit: 3,
		MinTextLength:  20,
	})

	return SetupRouter(testConfig(), NewHandler(service, embedder.Name()))
}

func postMatch(router *gin.Engine, payload string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/v1/competitors/match", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestMatchWithService tests the match endpoint with a real service
func TestMatchWithService(t *testing.T) {
	t.Run("returns best match and price suggestion", func(t *testing.T) {
		router := setupTestRouterWithService(chairSearch(), chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{"keyword":"Bodenstuhl","description":"Bodenstuhl 14 Stufen einstellbar, gepolstert"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var result domain.MatchResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if result.BestMatch == nil || result.BestMatch.ID != "B002" {
			t.Fatalf("bestMatch = %+v, want B002", result.BestMatch)
		}
		if len(result.AllCandidates) != 2 {
			t.Errorf("len(allCandidates) = %d, want 2", len(result.AllCandidates))
		}
		if result.Degraded {
			t.Errorf("degraded = true, want false")
		}
		if result.Strategy != "lexical" {
			t.Errorf("strategy = %q, want lexical", result.Strategy)
		}
		if result.Suggestion == nil || result.Suggestion.Low != 58.99 || result.Suggestion.High != 61.99 {
			t.Errorf("suggestion = %+v, want 58.99-61.99", result.Suggestion)
		}
	})

	t.Run("returns 400 for missing keyword", func(t *testing.T) {
		router := setupTestRouterWithService(chairSearch(), chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{"description":"Bodenstuhl"}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["error"] == nil {
			t.Error("expected error field in response")
		}
	})

	t.Run("returns 400 for blank keyword", func(t *testing.T) {
		router := setupTestRouterWithService(chairSearch(), chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{"keyword":"   ","description":"Bodenstuhl"}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouterWithService(chairSearch(), chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{invalid json}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 404 when no competitors found", func(t *testing.T) {
		router := setupTestRouterWithService(&mockSearchClient{}, chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{"keyword":"nonexistent xyz123","description":"x"}`)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns degraded result with warning", func(t *testing.T) {
		router := setupTestRouterWithService(chairSearch(), chairDetails(), failingEmbedder{})

		w := postMatch(router, `{"keyword":"Bodenstuhl","description":"Bodenstuhl 14 Stufen"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response struct {
			Warning string             `json:"warning"`
			Data    domain.MatchResult `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response.Warning == "" {
			t.Error("expected warning for degraded result")
		}
		if !response.Data.Degraded {
			t.Error("data.degraded = false, want true")
		}
		if response.Data.BestMatch == nil || response.Data.BestMatch.ID != "B001" {
			t.Errorf("bestMatch = %+v, want first candidate B001", response.Data.BestMatch)
		}
	})

	t.Run("returns 502 for search failure", func(t *testing.T) {
		search := &mockSearchClient{err: domain.ErrSearchUnavailable}
		router := setupTestRouterWithService(search, chairDetails(), embedding.NewLexicalProvider())

		w := postMatch(router, `{"keyword":"Bodenstuhl","description":"x"}`)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["error"] != "Marketplace search temporarily unavailable" {
			t.Errorf("error = %v, want 'Marketplace search temporarily unavailable'", response["error"])
		}
	})
}

func TestMatchErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"search failed", fmt.Errorf("%w: boom", domain.ErrSearchFailed), http.StatusBadGateway},
		{"cancelled", fmt.Errorf("%w: context canceled", domain.ErrCancelled), statusClientClosedRequest},
		{"unexpected", fmt.Errorf("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := SetupRouter(testConfig(), NewHandler(stubMatcher{err: tt.err}, "lexical"))

			w := postMatch(router, `{"keyword":"Bodenstuhl"}`)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
