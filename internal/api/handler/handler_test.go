package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bindisa/agritech-api/internal/api/handler"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/llm"
	"github.com/bindisa/agritech-api/internal/security"
	"github.com/google/uuid"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("expected success to be true")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", data["status"])
	}
}

// stubProvider is a minimal configured provider for router tests
type stubProvider struct{ name string }

func (p *stubProvider) Name() string              { return p.name }
func (p *stubProvider) IsConfigured() bool        { return true }
func (p *stubProvider) DefaultModel() string      { return "stub-model" }
func (p *stubProvider) AvailableModels() []string { return []string{"stub-model"} }
func (p *stubProvider) Chat(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	return &llm.Response{Content: "ok", Model: model}, nil
}

func TestListLLMProviders(t *testing.T) {
	router := llm.NewRouter("gemini")
	router.RegisterProvider(&stubProvider{name: "gemini"})
	router.RegisterProvider(&stubProvider{name: "openai"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/llm/providers", nil)
	rec := httptest.NewRecorder()

	handler.ListLLMProviders(router)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["default_provider"] != "gemini" {
		t.Errorf("expected default provider 'gemini', got %v", data["default_provider"])
	}

	providers, ok := data["providers"].([]any)
	if !ok || len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %v", data["providers"])
	}
}

// TestChatFlow tests the complete chat flow
func TestChatFlow(t *testing.T) {
	t.Skip("Requires MongoDB connection - run as integration test")

	// This would be the integration test flow:
	// 1. Register and login a farmer
	// 2. Open a chat session on a topic
	// 3. Send a message and verify the keyword reply
	// 4. Rate the session, then escalate it
	// 5. Verify the session shows up in analytics
}

// BenchmarkJWTGeneration benchmarks token generation
func BenchmarkJWTGeneration(b *testing.B) {
	manager := security.NewJWTManager("benchmark-secret-key-32-chars!!", 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = manager.GenerateAccessToken(userID, "test@example.com", domain.RoleFarmer, false)
	}
}

// Helper to make JSON request
func makeJSONRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}
