package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Verdict is the judge's ruling on one free-text answer.
type Verdict struct {
	Match         bool   `json:"match"`
	MatchedAnswer string `json:"matchedAnswer"`
	Confidence    string `json:"confidence"`
	Reason        string `json:"reason"`
}

// Judge semantically compares a player's answer against the answers on
// the board. Implementations may take arbitrary time and must report
// unreachable or malformed backends as errors, never panics.
type Judge interface {
	Check(ctx context.Context, question string, boardAnswers []string, playerAnswer string) (*Verdict, error)
}

const judgeSystemPrompt = "You are a helpful assistant that judges Family Feud answers. Always respond with valid JSON only."

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// openAIJudge asks a chat-completions model for a ruling.
type openAIJudge struct {
	url    string
	key    string
	model  string
	client *http.Client
}

func newOpenAIJudge(cfg *Config) *openAIJudge {
	return &openAIJudge{
		url:    cfg.judgeURL,
		key:    cfg.openAIKey,
		model:  cfg.judgeModel,
		client: &http.Client{},
	}
}

func judgePrompt(question string, boardAnswers []string, playerAnswer string) string {
	var b strings.Builder

	b.WriteString("You are judging a Family Feud game. Given the question and the list of correct answers on the board, determine if the player's answer matches or is close enough to any of the correct answers.\n\n")
	fmt.Fprintf(&b, "Question: %q\n\nCorrect answers on the board:\n", question)
	for i, answer := range boardAnswers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, answer)
	}
	fmt.Fprintf(&b, "\nPlayer's answer: %q\n\n", playerAnswer)
	b.WriteString(`Please respond with ONLY a JSON object in this exact format:
{
  "match": true or false,
  "matchedAnswer": "the exact answer from the board that matches, or empty string if no match",
  "confidence": "high", "medium", or "low",
  "reason": "brief explanation"
}

Be lenient - if the player's answer is essentially the same meaning or a close variation of a correct answer, consider it a match. For example, "car" matches "Car", "automobile" could match "Car", "lipstick" matches "Lipstick", etc.`)

	return b.String()
}

func (j *openAIJudge) Check(ctx context.Context, question string, boardAnswers []string, playerAnswer string) (*Verdict, error) {
	body, err := json.Marshal(chatRequest{
		Model: j.model,
		Messages: []chatMessage{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: judgePrompt(question, boardAnswers, playerAnswer)},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.key)

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("judge returned unparseable content: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("judge request failed: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("judge request failed: status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}

	verdict := &Verdict{}
	content := stripJSONFences(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), verdict); err != nil {
		return nil, fmt.Errorf("judge returned unparseable content: %w", err)
	}

	return verdict, nil
}

// Models sometimes wrap their JSON in markdown code fences despite the
// prompt; strip them before unmarshaling.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
