package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteSuccess(t *testing.T) {
	var gotVersion, gotKey string
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			ID:   "msg_1",
			Role: RoleAssistant,
			Content: []ContentBlock{
				{Type: ContentThinking, Thinking: "let me look at the screen"},
				TextBlock("BUTTONS: up 3"),
			},
			StopReason: "end_turn",
		})
	}))
	defer server.Close()

	client := NewClient("sk-test", WithBaseURL(server.URL))
	resp, err := client.Complete(context.Background(), Request{
		Model:     "claude-sonnet-4-5",
		MaxTokens: 1024,
		Messages:  []Message{UserMessage("what next?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "sk-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Errorf("anthropic-version = %q, want %q", gotVersion, apiVersion)
	}
	if gotReq.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q", gotReq.Model)
	}
	// Thinking blocks must not leak into the parseable text.
	if resp.Text() != "BUTTONS: up 3" {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Reasoning() != "let me look at the screen" {
		t.Errorf("Reasoning() = %q", resp.Reasoning())
	}
}

func TestCompleteEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.Complete(context.Background(), Request{Model: DefaultModel, MaxTokens: 16})
	if err == nil {
		t.Fatal("expected error")
	}
	authErr, ok := err.(*AuthenticationError)
	if !ok {
		t.Fatalf("expected AuthenticationError, got %T", err)
	}
	if authErr.ErrorType != "authentication_error" {
		t.Errorf("ErrorType = %q", authErr.ErrorType)
	}
	if !IsFatal(err) {
		t.Error("authentication error must be fatal")
	}
}

func TestCompleteOverloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", WithBaseURL(server.URL))
	_, err := client.Complete(context.Background(), Request{Model: DefaultModel, MaxTokens: 16})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %T: %v", err, err)
	}
}

func TestCompleteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": "not an array"`))
	}))
	defer server.Close()

	client := NewClient("sk-test", WithBaseURL(server.URL))
	_, err := client.Complete(context.Background(), Request{Model: DefaultModel, MaxTokens: 16})
	if _, ok := err.(*MalformedResponseError); !ok {
		t.Fatalf("expected MalformedResponseError, got %T", err)
	}
	if !IsRetryable(err) {
		t.Error("malformed body is recoverable")
	}
}

func TestCompleteDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient("sk-test", WithBaseURL(server.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, Request{Model: DefaultModel, MaxTokens: 16})
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestCompleteConnectionRefused(t *testing.T) {
	client := NewClient("sk-test", WithBaseURL("http://127.0.0.1:1"))
	_, err := client.Complete(context.Background(), Request{Model: DefaultModel, MaxTokens: 16})
	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}
