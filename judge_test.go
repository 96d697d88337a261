package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testJudge(url string) *openAIJudge {
	return &openAIJudge{
		url:    url,
		key:    "test-key",
		model:  "test-model",
		client: &http.Client{},
	}
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestJudgeCheckParsesVerdict(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("unparseable request body: %v", err)
		}
		w.Write([]byte(chatReply(`{"match": true, "matchedAnswer": "Apple", "confidence": "high", "reason": "exact match"}`)))
	}))
	defer srv.Close()

	verdict, err := testJudge(srv.URL).Check(context.Background(), "Name a fruit", []string{"Apple", "Banana"}, "apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Match || verdict.MatchedAnswer != "Apple" || verdict.Confidence != "high" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	if captured.Model != "test-model" || len(captured.Messages) != 2 {
		t.Fatalf("unexpected upstream request: %+v", captured)
	}
	prompt := captured.Messages[1].Content
	for _, want := range []string{"Name a fruit", "1. Apple", "2. Banana", `"apple"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestJudgeCheckStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply("```json\n{\"match\": false, \"reason\": \"not on the board\"}\n```")))
	}))
	defer srv.Close()

	verdict, err := testJudge(srv.URL).Check(context.Background(), "Name a fruit", []string{"Apple"}, "zebra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Match || verdict.Reason != "not on the board" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestJudgeCheckReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	_, err := testJudge(srv.URL).Check(context.Background(), "Name a fruit", []string{"Apple"}, "apple")
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("expected the API error surfaced, got %v", err)
	}
}

func TestJudgeCheckRejectsMalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatReply("I think that's probably a match!")))
	}))
	defer srv.Close()

	_, err := testJudge(srv.URL).Check(context.Background(), "Name a fruit", []string{"Apple"}, "apple")
	if err == nil || !strings.Contains(err.Error(), "unparseable") {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func TestJudgeCheckRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := testJudge(srv.URL).Check(context.Background(), "Name a fruit", []string{"Apple"}, "apple")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected a no-choices error, got %v", err)
	}
}

func TestStripJSONFences(t *testing.T) {
	for input, want := range map[string]string{
		"{\"match\": true}":                    `{"match": true}`,
		"```json\n{\"match\": true}\n```":      `{"match": true}`,
		"```\n{\"match\": true}\n```":          `{"match": true}`,
		"  \n```json\n{\"match\": true}\n``` ": `{"match": true}`,
	} {
		if got := stripJSONFences(input); got != want {
			t.Fatalf("stripJSONFences(%q) = %q, want %q", input, got, want)
		}
	}
}
