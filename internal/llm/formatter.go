// Package llm reformats raw transcripts through an OpenAI-compatible chat API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxtool/vox/internal/config"
)

const systemPrompt = `You are an assistant that cleans up speech-recognition transcripts.
Rewrite the input text according to the rules below and output only the rewritten text.

Rules:
1. Remove filler words ("um", "uh", "you know", "like", "so", "well") completely
2. Fix misspoken words, repetitions, and false starts
3. Reconstruct rambling speech into clear sentences that preserve the speaker's intent
4. Add appropriate punctuation
5. Fix grammatical errors
6. Spell technical and English terms correctly (e.g. "react jay ess" -> "React.js")
7. Never change the meaning or add information
8. Output only the cleaned text, with no explanations or annotations`

// Formatter sends raw transcripts to a local chat model for cleanup.
type Formatter struct {
	client    *openai.Client
	model     string
	temp      float32
	maxTokens int
	timeout   time.Duration
	skipChars int
}

// NewFormatter builds a formatter against the configured chat endpoint.
// Local endpoints do not require a real API key.
func NewFormatter(cfg config.LLMConfig) *Formatter {
	clientCfg := openai.DefaultConfig("not-needed")
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Formatter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		temp:      float32(cfg.Temperature),
		maxTokens: cfg.MaxTokens,
		timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		skipChars: cfg.SkipShortMaxChars,
	}
}

// Format rewrites raw transcript text. Short inputs pass through untouched,
// they carry too little context for the model to improve.
func (f *Formatter) Format(ctx context.Context, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if f.skipChars > 0 && utf8.RuneCountInString(trimmed) <= f.skipChars {
		return trimmed, nil
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: trimmed},
		},
		Temperature: f.temp,
		MaxTokens:   f.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm formatting: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm formatting: empty response from %s", f.model)
	}
	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("llm formatting: %s returned empty text", f.model)
	}
	return result, nil
}
