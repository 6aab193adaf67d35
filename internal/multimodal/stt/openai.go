package stt

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISTTConfig holds configuration for the OpenAI STT backend.
type OpenAISTTConfig struct {
	APIKey  string
	BaseURL string        // default: "https://api.openai.com/v1"
	Model   string        // default: "whisper-1"
	Timeout time.Duration // default: 5m
}

// OpenAISTT transcribes audio using OpenAI's transcription API (or a compatible endpoint).
type OpenAISTT struct {
	cfg    OpenAISTTConfig
	client *openai.Client
}

// NewOpenAISTT creates an OpenAISTT with sensible defaults applied.
func NewOpenAISTT(cfg OpenAISTTConfig) *OpenAISTT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAISTT{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
	}
}

func (o *OpenAISTT) Name() string { return "openai-whisper" }

// Model returns the fixed model identifier sent with every request.
func (o *OpenAISTT) Model() string { return o.cfg.Model }

// Transcribe uploads the file at req.FilePath as the "file" part of a
// multipart request together with the configured model. Any non-2xx answer
// is a failure.
func (o *OpenAISTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	if _, err := os.Stat(req.FilePath); err != nil {
		return nil, NewError(KindFilesystem, fmt.Errorf("stat audio file: %w", err))
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: req.FilePath,
		Language: req.Language,
		Prompt:   req.Prompt,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("openai transcription: %w", err))
	}

	return &TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
