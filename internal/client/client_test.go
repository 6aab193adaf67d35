package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audionotes/internal/api"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
	"github.com/nikhilbhutani/audionotes/internal/notes/notestest"
)

type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Transcribe(ctx context.Context, req stt.TranscriptionRequest) (*stt.TranscriptionResponse, error) {
	if _, err := os.Stat(req.FilePath); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &stt.TranscriptionResponse{Text: s.text}, nil
}

type server struct {
	client   *Client
	provider *stubProvider
	store    *notestest.Storage
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		STT:    config.STTConfig{TempDir: t.TempDir(), MaxUploadBytes: 1 << 20},
	}
	m := metrics.NewMetrics()
	s := &server{provider: &stubProvider{text: "hello world"}, store: notestest.NewStorage()}
	svc := notes.NewService(notestest.NewRepository(), s.store, "audio_recordings", m)

	router := api.NewRouter(cfg, api.Deps{Notes: svc, STT: s.provider, Metrics: m})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(func() {
		srv.Close()
		router.Close()
	})

	s.client = New(srv.URL+"/", 10*time.Second)
	return s
}

func TestClientTranscribe(t *testing.T) {
	s := newServer(t)

	text, err := s.client.Transcribe(context.Background(), []byte("RIFF"), "recording.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestClientTranscribeFailure(t *testing.T) {
	s := newServer(t)
	s.provider.err = stt.NewError(stt.KindUpstream5xx, errors.New("boom"))

	_, err := s.client.Transcribe(context.Background(), []byte("RIFF"), "")
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "failed to transcribe audio", se.Message)
	assert.Equal(t, "upstream_5xx", se.Kind)
}

func TestClientNotesLifecycle(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	list, err := s.client.ListNotes(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	at := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	first, err := s.client.SaveNote(ctx, []byte("one"), "a.webm", "first", at)
	require.NoError(t, err)
	second, err := s.client.SaveNote(ctx, []byte("two"), "b.wav", "second", at.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.Equal(at.Add(time.Second)))

	objects := s.store.Objects()
	require.Len(t, objects, 2)
	webm := 0
	for _, o := range objects {
		if s.store.ContentType(o) == "audio/webm" {
			webm++
		}
	}
	assert.Equal(t, 1, webm)

	list, err = s.client.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	require.NoError(t, s.client.DeleteNote(ctx, first.ID))
	list, err = s.client.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	err = s.client.DeleteNote(ctx, uuid.New())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClientSaveNothing(t *testing.T) {
	s := newServer(t)
	_, err := s.client.SaveNote(context.Background(), []byte("x"), "", "", time.Time{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "nothing to save", se.Message)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListNotes(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "Bad Gateway", se.Message)
}
