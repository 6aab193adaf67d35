package recorder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audionotes/internal/api"
	"github.com/nikhilbhutani/audionotes/internal/client"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
	"github.com/nikhilbhutani/audionotes/internal/notes/notestest"
	"github.com/nikhilbhutani/audionotes/internal/recorder"
)

// Full path: file microphone → client → relay → fake OpenAI upstream, then
// save and delete through the notes API backed by in-memory storage.
func TestRecordTranscribeSaveDeleteScenario(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile(stt.FileField); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer upstream.Close()

	tempDir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		STT:    config.STTConfig{TempDir: tempDir, MaxUploadBytes: 1 << 20},
	}
	m := metrics.NewMetrics()
	repo := notestest.NewRepository()
	store := notestest.NewStorage()
	svc := notes.NewService(repo, store, "audio_recordings", m)
	provider := stt.NewOpenAISTT(stt.OpenAISTTConfig{APIKey: "sk-test", BaseURL: upstream.URL})

	router := api.NewRouter(cfg, api.Deps{Notes: svc, STT: provider, Metrics: m})
	srv := httptest.NewServer(router.Setup())
	defer srv.Close()
	defer router.Close()

	// Three seconds of 8 kHz 16-bit mono silence.
	audioPath := filepath.Join(t.TempDir(), "note.wav")
	require.NoError(t, os.WriteFile(audioPath, make([]byte, 3*8000*2), 0o600))
	mic := &recorder.FileMicrophone{Path: audioPath, ChunkSize: 4096}

	cl := client.New(srv.URL, 10*time.Second)
	c := recorder.NewController(mic, cl, cl, recorder.ConfirmFunc(func(string) bool { return true }),
		recorder.WithFilename("note.wav"))
	ctx := context.Background()

	require.NoError(t, c.Init(ctx))
	n := len(c.Snapshot().Notes)

	require.NoError(t, c.StartRecording(ctx))
	<-mic.Done()
	require.NoError(t, c.StopRecording(ctx))
	assert.Equal(t, "hello world", c.Snapshot().Transcript)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "relay left temp files behind")

	note, err := c.SaveNote(ctx)
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Notes, n+1)
	assert.Equal(t, "hello world", snap.Notes[0].Transcription)
	assert.Equal(t, note.ID, snap.Notes[0].ID)
	assert.Len(t, store.Objects(), 1)

	require.NoError(t, c.DeleteNote(ctx, note.ID))
	assert.Len(t, c.Snapshot().Notes, n)
	assert.Empty(t, store.Objects())
	assert.Zero(t, repo.Len())
}
