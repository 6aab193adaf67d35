package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/audionotes/internal/cache"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/models"
	"github.com/nikhilbhutani/audionotes/internal/storage"
)

var (
	ErrNothingToSave = errors.New("nothing to save")
	ErrNotFound      = errors.New("note not found")
)

const (
	listCacheKey       = "notes:list"
	defaultContentType = "audio/wav"
)

// Service persists notes as an audio object plus a database row.
type Service struct {
	repo     Repository
	storage  storage.Storage
	bucket   string
	metrics  *metrics.Metrics
	cache    *cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, store storage.Storage, bucket string, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		storage: store,
		bucket:  bucket,
		metrics: m,
		now:     time.Now,
	}
}

// WithCache serves List from c for ttl. Saves and deletes invalidate it.
func (s *Service) WithCache(c *cache.Cache, ttl time.Duration) *Service {
	if ttl > 0 {
		s.cache = c
		s.cacheTTL = ttl
	}
	return s
}

type SaveRequest struct {
	Audio         []byte
	Filename      string // client-side name, only its extension is kept
	ContentType   string
	Transcription string
	CreatedAt     time.Time // caller's clock; zero means now
}

// Save uploads the audio under a fresh object name, resolves its public URL
// and inserts the note row.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*models.AudioNote, error) {
	if len(req.Audio) == 0 || strings.TrimSpace(req.Transcription) == "" {
		return nil, ErrNothingToSave
	}

	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultContentType
	}
	name := "recording-" + uuid.NewString() + extensionFor(req.Filename, contentType)

	if err := s.storage.Upload(ctx, s.bucket, name, bytes.NewReader(req.Audio), contentType); err != nil {
		s.metrics.StorageFailure.WithLabelValues("upload").Inc()
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	note := &models.AudioNote{
		AudioURL:      s.storage.GetPublicURL(s.bucket, name),
		Transcription: req.Transcription,
		CreatedAt:     createdAt.UTC(),
	}
	if err := s.repo.Insert(ctx, note); err != nil {
		// The row never existed, so the object would be unreachable.
		if delErr := s.storage.Delete(ctx, s.bucket, name); delErr != nil {
			s.metrics.OrphanedBlobs.Inc()
			slog.Warn("failed to remove audio after insert error", "object", name, "error", delErr)
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.metrics.NotesSaved.Inc()
	slog.Info("note saved", "id", note.ID, "object", name, "bytes", len(req.Audio))
	return note, nil
}

// List returns all notes, newest first.
func (s *Service) List(ctx context.Context) ([]models.AudioNote, error) {
	if s.cache != nil {
		var cached []models.AudioNote
		err := s.cache.Get(ctx, listCacheKey, &cached)
		switch {
		case err == nil:
			s.metrics.NoteListCache.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, cache.ErrMiss):
			s.metrics.NoteListCache.WithLabelValues("miss").Inc()
		default:
			s.metrics.NoteListCache.WithLabelValues("error").Inc()
			slog.Warn("note list cache unavailable", "error", err)
		}
	}

	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listCacheKey, notes, s.cacheTTL); err != nil {
			slog.Warn("failed to cache note list", "error", err)
		}
	}
	return notes, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AudioNote, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the note's audio object and then its row. The row is
// deleted even when the object removal fails; such objects are logged and
// counted as orphaned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	audioURL, err := s.repo.AudioURL(ctx, id)
	if err != nil {
		return err
	}

	name, err := storage.ObjectNameFromURL(audioURL)
	if err != nil {
		s.metrics.OrphanedBlobs.Inc()
		slog.Warn("cannot derive object name", "id", id, "audio_url", audioURL, "error", err)
	} else if err := s.storage.Delete(ctx, s.bucket, name); err != nil {
		s.metrics.StorageFailure.WithLabelValues("delete").Inc()
		s.metrics.OrphanedBlobs.Inc()
		slog.Warn("failed to delete audio object", "id", id, "object", name, "error", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.metrics.NotesDeleted.Inc()
	slog.Info("note deleted", "id", id)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		slog.Warn("failed to invalidate note list cache", "error", err)
	}
}

func extensionFor(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	default:
		return ".wav"
	}
}
