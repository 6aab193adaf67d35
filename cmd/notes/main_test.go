package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audionotes/internal/api"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
	"github.com/nikhilbhutani/audionotes/internal/notes/notestest"
)

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Transcribe(ctx context.Context, req stt.TranscriptionRequest) (*stt.TranscriptionResponse, error) {
	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, err
	}
	return &stt.TranscriptionResponse{Text: strings.TrimSpace(string(data))}, nil
}

func startServer(t *testing.T) (string, *notestest.Repository) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		STT:    config.STTConfig{TempDir: t.TempDir(), MaxUploadBytes: 1 << 20},
	}
	m := metrics.NewMetrics()
	repo := notestest.NewRepository()
	svc := notes.NewService(repo, notestest.NewStorage(), "audio_recordings", m)

	router := api.NewRouter(cfg, api.Deps{Notes: svc, STT: echoProvider{}, Metrics: m})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(func() {
		srv.Close()
		router.Close()
	})
	return srv.URL, repo
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeAudio(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRecordListDelete(t *testing.T) {
	url, repo := startServer(t)

	out, _, err := run(t, "", "--server", url, "record", "--chunk-size", "3", writeAudio(t, "memo.webm", "buy milk\n"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk\n", out)
	require.Equal(t, 1, repo.Len())

	out, _, err = run(t, "", "--server", url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TRANSCRIPTION")
	assert.Contains(t, out, "buy milk")

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	id := list[0].ID.String()

	// Declined at the prompt.
	out, _, err = run(t, "n\n", "--server", url, "delete", id)
	require.Error(t, err)
	assert.Contains(t, out, "Are you sure you want to delete this note?")
	assert.Equal(t, 1, repo.Len())

	_, stderr, err := run(t, "y\n", "--server", url, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, stderr, "deleted note "+id)
	assert.Zero(t, repo.Len())
}

func TestRecordNoSave(t *testing.T) {
	url, repo := startServer(t)

	out, _, err := run(t, "", "--server", url, "record", "--no-save", writeAudio(t, "memo.wav", "just text"))
	require.NoError(t, err)
	assert.Equal(t, "just text\n", out)
	assert.Zero(t, repo.Len())
}

func TestRecordEmptyTranscriptIsNothingToSave(t *testing.T) {
	url, repo := startServer(t)

	_, _, err := run(t, "", "--server", url, "record", writeAudio(t, "memo.wav", "   "))
	require.Error(t, err)
	assert.Equal(t, "Nothing to save", err.Error())
	assert.Zero(t, repo.Len())
}

func TestRecordMissingFile(t *testing.T) {
	url, _ := startServer(t)

	_, _, err := run(t, "", "--server", url, "record", filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.Equal(t, "Permission to access microphone was denied", err.Error())
}

func TestDeleteUnknownNote(t *testing.T) {
	url, _ := startServer(t)

	_, _, err := run(t, "", "--server", url, "delete", "--yes", "6b1f5a8e-0c5e-4f7e-9a43-7c0b8d1d2e3f")
	require.Error(t, err)
	assert.Equal(t, "Failed to delete note", err.Error())

	_, _, err = run(t, "", "--server", url, "delete", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid note ID")
}

func TestListUnreachableServer(t *testing.T) {
	_, _, err := run(t, "", "--server", "http://127.0.0.1:1", "--timeout", "1s", "list")
	require.Error(t, err)
	assert.Equal(t, "Failed to load notes", err.Error())
}
