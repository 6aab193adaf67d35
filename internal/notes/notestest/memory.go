// Package notestest provides in-memory doubles of the notes repository and
// the blob store for tests.
package notestest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/audionotes/internal/models"
	"github.com/nikhilbhutani/audionotes/internal/notes"
	"github.com/nikhilbhutani/audionotes/internal/storage"
)

// Repository is an in-memory notes.Repository. Set the Err fields to make the
// matching call fail.
type Repository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]models.AudioNote
	Calls int

	InsertErr error
	ListErr   error
	DeleteErr error
}

func NewRepository() *Repository {
	return &Repository{rows: map[uuid.UUID]models.AudioNote{}}
}

func (r *Repository) Insert(ctx context.Context, note *models.AudioNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.InsertErr != nil {
		return r.InsertErr
	}
	note.ID = uuid.New()
	r.rows[note.ID] = *note
	return nil
}

func (r *Repository) List(ctx context.Context) ([]models.AudioNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := make([]models.AudioNote, 0, len(r.rows))
	for _, n := range r.rows {
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.AudioNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	n, ok := r.rows[id]
	if !ok {
		return nil, notes.ErrNotFound
	}
	return &n, nil
}

func (r *Repository) AudioURL(ctx context.Context, id uuid.UUID) (string, error) {
	n, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return n.AudioURL, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.rows, id)
	return nil
}

// Len returns the number of stored rows.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Storage is an in-memory storage.Storage keyed by bucket/path.
type Storage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	Calls   int

	UploadErr error
	DeleteErr error
}

func NewStorage() *Storage {
	return &Storage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *Storage) Upload(ctx context.Context, bucket, path string, data io.Reader, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.UploadErr != nil {
		return s.UploadErr
	}
	key := bucket + "/" + path
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("object %s already exists", key)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = b
	s.types[key] = contentType
	return nil
}

func (s *Storage) Download(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	b, ok := s.objects[bucket+"/"+path]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *Storage) Delete(ctx context.Context, bucket, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	key := bucket + "/" + path
	if _, ok := s.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *Storage) GetPublicURL(bucket, path string) string {
	return "https://storage.test/object/public/" + bucket + "/" + path
}

// Objects returns the stored keys.
func (s *Storage) Objects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type an object was uploaded with.
func (s *Storage) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

// ErrInjected is a convenience failure for the Err fields.
var ErrInjected = errors.New("injected failure")
