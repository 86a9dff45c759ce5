package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maure-club/strategieclub/internal/adapter/openai"
	"github.com/maure-club/strategieclub/internal/port/llm"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer pplx-test" {
			t.Fatalf("unexpected auth: %q", r.Header.Get("Authorization"))
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "sonar-pro" {
			t.Fatalf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected message roles: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"geprüft"}}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(srv.URL, "pplx-test", time.Second)
	got, err := client.Complete(context.Background(), llm.Request{
		Model:     "sonar-pro",
		System:    "Du bist ein Research-Assistent.",
		User:      "Dokument...",
		MaxTokens: 8192,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "geprüft" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestCompleteOmitsEmptySystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("expected single user message, got %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(srv.URL, "key", time.Second)
	if _, err := client.Complete(context.Background(), llm.Request{Model: "gpt-4o", User: "u"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer srv.Close()

	client := openai.NewClient(srv.URL, "key", time.Second)
	_, err := client.Complete(context.Background(), llm.Request{Model: "gpt-4o", User: "u"})

	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *llm.APIError, got %v", err)
	}
	if apiErr.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", apiErr.StatusCode())
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(srv.URL, "key", time.Second)
	if _, err := client.Complete(context.Background(), llm.Request{Model: "gpt-4o", User: "u"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
