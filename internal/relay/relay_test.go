package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeUpstream(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") == "" {
			t.Errorf("missing api key header")
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": reply}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func relayServer(t *testing.T, upstream string) *httptest.Server {
	t.Helper()
	server := NewServer(Config{GeminiURL: upstream, APIKey: "test-key"}, nil)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRelayForwardsPrompt(t *testing.T) {
	upstream := fakeUpstream(t, "Savings pools share a goal.", http.StatusOK)
	srv := relayServer(t, upstream.URL)

	reply, err := NewClient(srv.URL).SendPrompt(context.Background(), "what is a pool?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Savings pools share a goal." {
		t.Fatalf("reply mismatch: %q", reply)
	}
}

func TestRelayEmptyPrompt(t *testing.T) {
	upstream := fakeUpstream(t, "ignored", http.StatusOK)
	srv := relayServer(t, upstream.URL)

	resp, err := http.Post(srv.URL+"/api/chatbot", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Prompt is required" {
		t.Fatalf("error text mismatch: %q", body["error"])
	}
}

func TestRelayUniformUpstreamFailure(t *testing.T) {
	upstream := fakeUpstream(t, "", http.StatusBadGateway)
	srv := relayServer(t, upstream.URL)

	resp, err := http.Post(srv.URL+"/api/chatbot", "application/json", strings.NewReader(`{"prompt":"hi"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Failed to process request" {
		t.Fatalf("error text mismatch: %q", body["error"])
	}

	if _, err := NewClient(srv.URL).SendPrompt(context.Background(), "hi"); !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
}

func TestRelayMethodNotAllowed(t *testing.T) {
	upstream := fakeUpstream(t, "ignored", http.StatusOK)
	srv := relayServer(t, upstream.URL)

	resp, err := http.Get(srv.URL + "/api/chatbot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
