package stt

import (
	"context"
	"time"
)

// LocalSTTConfig holds configuration for a local OpenAI-compatible whisper server.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178"
	Model   string
	Timeout time.Duration
}

// LocalSTT wraps OpenAISTT pointing at a local whisper server that exposes
// the OpenAI-compatible /audio/transcriptions route (e.g. whisper.cpp or
// faster-whisper-server).
type LocalSTT struct {
	*OpenAISTT
}

// NewLocalSTT creates a LocalSTT backed by a local whisper HTTP server.
func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	return &LocalSTT{
		OpenAISTT: NewOpenAISTT(OpenAISTTConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			// No API key needed for local server
		}),
	}
}

func (l *LocalSTT) Name() string { return "local-whisper" }

func (l *LocalSTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	return l.OpenAISTT.Transcribe(ctx, req)
}
