package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStorageUpload(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Key":"audio_recordings/recording-1.wav"}`))
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL+"/", "service-key")
	err := s.Upload(context.Background(), "audio_recordings", "recording-1.wav", strings.NewReader("RIFF"), "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/audio_recordings/recording-1.wav", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "audio/wav", gotType)
	assert.Equal(t, "RIFF", gotBody)
}

func TestSupabaseStorageUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Duplicate"}`, http.StatusConflict)
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k")
	err := s.Upload(context.Background(), "b", "x.wav", strings.NewReader("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestSupabaseStorageDelete(t *testing.T) {
	var method, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		gotPath = r.URL.Path
		if strings.HasSuffix(r.URL.Path, "missing.wav") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k")
	require.NoError(t, s.Delete(context.Background(), "audio_recordings", "recording-1.wav"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/storage/v1/object/audio_recordings/recording-1.wav", gotPath)

	err := s.Delete(context.Background(), "audio_recordings", "missing.wav")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestSupabaseStorageDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	rc, err := NewSupabaseStorage(srv.URL, "k").Download(context.Background(), "b", "a.wav")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(b))
}

func TestPublicURLRoundTrip(t *testing.T) {
	s := NewSupabaseStorage("https://project.supabase.co", "k")
	u := s.GetPublicURL("audio_recordings", "recording-abc.wav")
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/audio_recordings/recording-abc.wav", u)

	name, err := ObjectNameFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "recording-abc.wav", name)
}

func TestObjectNameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain", url: "https://h/storage/v1/object/public/b/rec.wav", want: "rec.wav"},
		{name: "query ignored", url: "https://h/b/rec.webm?token=abc", want: "rec.webm"},
		{name: "escaped", url: "https://h/b/my%20note.wav", want: "my note.wav"},
		{name: "no path", url: "https://h", wantErr: true},
		{name: "bad url", url: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ObjectNameFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
