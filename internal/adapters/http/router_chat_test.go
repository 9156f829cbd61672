package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/config"
)

func TestChatEndpointReturnsAnswer(t *testing.T) {
	handler := newTestHandler(config.Config{})

	payload, _ := json.Marshal(map[string]any{
		"thread_id": "thread-1",
		"query":     "what is formative assessment",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["response"] == "" {
		t.Fatalf("expected response text, got %+v", resp)
	}
	sources, ok := resp["sources"].([]any)
	if !ok || len(sources) != 1 {
		t.Fatalf("expected one source, got %+v", resp["sources"])
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestChatEndpointRejectsBadJSON(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatEndpointRejectsGet(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
