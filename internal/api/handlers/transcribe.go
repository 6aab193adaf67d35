package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
)

// memory kept for multipart parts before they spill to disk
const multipartMemory = 8 << 20

// TranscribeHandler relays one uploaded audio file to the STT provider and
// answers with the transcript. It keeps no state between requests.
type TranscribeHandler struct {
	provider  stt.Provider
	tempDir   string
	maxUpload int64
	metrics   *metrics.Metrics
}

func NewTranscribeHandler(provider stt.Provider, tempDir string, maxUpload int64, m *metrics.Metrics) *TranscribeHandler {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &TranscribeHandler{
		provider:  provider,
		tempDir:   tempDir,
		maxUpload: maxUpload,
		metrics:   m,
	}
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	text, err := h.transcribe(w, r)
	if err != nil {
		kind := stt.KindOf(err)
		h.metrics.TranscriptionRequests.WithLabelValues(string(kind)).Inc()
		slog.Error("transcription failed",
			"kind", kind,
			"provider", h.provider.Name(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to transcribe audio",
			"kind":  string(kind),
		})
		return
	}

	h.metrics.TranscriptionRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *TranscribeHandler) transcribe(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", stt.NewError(stt.KindValidation, fmt.Errorf("parse multipart form: %w", err))
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(stt.FileField)
	if err != nil {
		return "", stt.NewError(stt.KindValidation, fmt.Errorf("read form file %q: %w", stt.FileField, err))
	}
	defer file.Close()
	h.metrics.UploadSize.Observe(float64(header.Size))

	tmp, err := os.CreateTemp(h.tempDir, "transcribe-*"+audioExt(header.Filename))
	if err != nil {
		return "", stt.NewError(stt.KindFilesystem, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file", "path", tmpPath, "error", err)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return "", stt.NewError(stt.KindFilesystem, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return "", stt.NewError(stt.KindFilesystem, fmt.Errorf("close temp file: %w", err))
	}

	start := time.Now()
	resp, err := h.provider.Transcribe(r.Context(), stt.TranscriptionRequest{FilePath: tmpPath})
	h.metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	slog.Debug("transcribed audio", "bytes", header.Size, "chars", len(resp.Text))
	return resp.Text, nil
}

// audioExt keeps the upload's extension so the provider can detect the
// format; anything unusual falls back to .wav.
func audioExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ".wav"
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ".wav"
		}
	}
	return ext
}
