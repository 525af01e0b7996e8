// Package stt turns captured audio buffers into transcripts.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxtool/vox/internal/audio"
	"github.com/voxtool/vox/internal/config"
)

// Engine transcribes one finished utterance.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
}

// New builds the configured transcription engine.
func New(cfg config.STTConfig) (Engine, error) {
	switch cfg.Engine {
	case "whisper-server":
		apiKey := cfg.APIKey
		if apiKey == "" {
			// Local whisper servers accept any bearer token.
			apiKey = "unused"
		}
		clientCfg := openai.DefaultConfig(apiKey)
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		return &transcriber{
			name:     "whisper-server",
			client:   openai.NewClientWithConfig(clientCfg),
			model:    cfg.Model,
			language: cfg.Language,
			timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
		}, nil
	case "openai":
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		return &transcriber{
			name:     "openai",
			client:   openai.NewClientWithConfig(clientCfg),
			model:    cfg.Model,
			language: cfg.Language,
			timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
		}, nil
	default:
		return nil, fmt.Errorf("unknown stt.engine %q", cfg.Engine)
	}
}

// transcriber speaks the OpenAI transcription API, local or hosted.
type transcriber struct {
	name     string
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
}

func (t *transcriber) Name() string {
	return t.name
}

func (t *transcriber) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	if buf.Empty() {
		return "", nil
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: "capture.wav",
		Reader:   bytes.NewReader(EncodeWAV(buf)),
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", t.name, err)
	}
	return ValidateTranscript(resp.Text, buf.Duration()), nil
}
