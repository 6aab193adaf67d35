// Package recorder drives the record → transcribe → save → list → delete
// lifecycle of the audio notes front-end.
//
// The Controller owns the transient state a user sees: whether the
// microphone is live, the unsaved audio draft, its transcript, the list of
// saved notes and the last user-facing error message. Causes of failures are
// logged; the user only ever sees one fixed message per operation.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/audionotes/internal/models"
)

// User-facing messages.
const (
	MsgMicrophoneDenied = "Permission to access microphone was denied"
	MsgTranscribeFailed = "Failed to transcribe audio"
	MsgNothingToSave    = "Nothing to save"
	MsgSaveFailed       = "Failed to save note"
	MsgLoadFailed       = "Failed to load notes"
	MsgDeleteFailed     = "Failed to delete note"

	DeletePrompt = "Are you sure you want to delete this note?"
)

var (
	ErrBusy          = errors.New("another operation is in progress")
	ErrNotRecording  = errors.New("not recording")
	ErrRecording     = errors.New("already recording")
	ErrNothingToSave = errors.New("nothing to save")
	ErrCancelled     = errors.New("cancelled by user")
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateDraft
	StateTranscribing
	StateTranscript
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateDraft:
		return "idle-with-draft"
	case StateTranscribing:
		return "transcribing"
	case StateTranscript:
		return "idle-with-transcript"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Busy reports whether a network operation is in flight.
func (s State) Busy() bool {
	return s == StateTranscribing || s == StateSaving
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// NoteStore persists notes.
type NoteStore interface {
	SaveNote(ctx context.Context, audio []byte, filename, transcription string, createdAt time.Time) (*models.AudioNote, error)
	ListNotes(ctx context.Context) ([]models.AudioNote, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	State      State
	DraftBytes int
	Transcript string
	Notes      []models.AudioNote
	Error      string
}

type Controller struct {
	mic      Microphone
	stt      Transcriber
	store    NoteStore
	confirm  Confirmer
	filename string
	now      func() time.Time

	mu         sync.Mutex
	state      State
	device     Device
	chunks     [][]byte
	draft      []byte
	transcript string
	notes      []models.AudioNote
	message    string
}

type Option func(*Controller)

// WithFilename sets the file name the draft is uploaded under; its extension
// tells the server the audio format. Default "recording.wav".
func WithFilename(name string) Option {
	return func(c *Controller) { c.filename = name }
}

// WithClock replaces time.Now for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(mic Microphone, stt Transcriber, store NoteStore, confirm Confirmer, opts ...Option) *Controller {
	c := &Controller{
		mic:      mic,
		stt:      stt,
		store:    store,
		confirm:  confirm,
		filename: "recording.wav",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init loads the saved notes once at startup.
func (c *Controller) Init(ctx context.Context) error {
	return c.FetchNotes(ctx)
}

// StartRecording opens the microphone and starts buffering chunks. Any
// previous draft and transcript are discarded.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == StateRecording:
		c.mu.Unlock()
		return ErrRecording
	case c.state.Busy():
		c.mu.Unlock()
		return ErrBusy
	}
	c.chunks = nil
	c.draft = nil
	c.transcript = ""
	c.message = ""
	c.state = StateRecording
	c.mu.Unlock()

	dev, err := c.mic.Open(ctx, c.appendChunk)
	if err != nil {
		slog.Warn("failed to open microphone", "error", err)
		c.mu.Lock()
		c.state = StateIdle
		c.message = MsgMicrophoneDenied
		c.mu.Unlock()
		return fmt.Errorf("open microphone: %w", err)
	}

	c.mu.Lock()
	c.device = dev
	c.mu.Unlock()
	return nil
}

func (c *Controller) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording {
		return
	}
	c.chunks = append(c.chunks, append([]byte(nil), chunk...))
}

// StopRecording releases the microphone, turns the buffered chunks into the
// draft and transcribes it right away.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording || c.device == nil {
		c.mu.Unlock()
		return ErrNotRecording
	}
	dev := c.device
	c.device = nil
	c.mu.Unlock()

	// Chunks delivered while the device shuts down still belong to the draft.
	if err := dev.Close(); err != nil {
		slog.Warn("failed to release microphone", "error", err)
	}

	c.mu.Lock()
	blob := bytes.Join(c.chunks, nil)
	c.chunks = nil
	c.draft = blob
	c.state = StateDraft
	c.mu.Unlock()

	return c.TranscribeAudio(ctx, blob)
}

// TranscribeAudio sends blob to the relay. On failure the draft stays and no
// transcript is set.
func (c *Controller) TranscribeAudio(ctx context.Context, blob []byte) error {
	c.mu.Lock()
	if c.state.Busy() || c.state == StateRecording {
		c.mu.Unlock()
		return ErrBusy
	}
	c.draft = blob
	c.transcript = ""
	c.message = ""
	c.state = StateTranscribing
	filename := c.filename
	c.mu.Unlock()

	text, err := c.stt.Transcribe(ctx, blob, filename)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("transcription failed", "bytes", len(blob), "error", err)
		c.message = MsgTranscribeFailed
		c.state = StateDraft
		return fmt.Errorf("transcribe audio: %w", err)
	}
	c.transcript = text
	c.state = StateTranscript
	return nil
}

// SaveNote persists the draft and its transcript. The draft is cleared only
// when the save succeeds.
func (c *Controller) SaveNote(ctx context.Context) (*models.AudioNote, error) {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if len(c.draft) == 0 || strings.TrimSpace(c.transcript) == "" {
		c.message = MsgNothingToSave
		c.mu.Unlock()
		return nil, ErrNothingToSave
	}
	prev := c.state
	draft, text, filename := c.draft, c.transcript, c.filename
	c.message = ""
	c.state = StateSaving
	c.mu.Unlock()

	note, err := c.store.SaveNote(ctx, draft, filename, text, c.now())
	if err != nil {
		slog.Error("failed to save note", "error", err)
		c.mu.Lock()
		c.message = MsgSaveFailed
		c.state = prev
		c.mu.Unlock()
		return nil, fmt.Errorf("save note: %w", err)
	}

	c.mu.Lock()
	c.draft = nil
	c.transcript = ""
	c.state = StateIdle
	c.mu.Unlock()

	// A failed refresh reports its own message; the note is saved either way.
	_ = c.FetchNotes(ctx)
	return note, nil
}

// FetchNotes replaces the note list with the stored notes, newest first. On
// failure the previous list is kept.
func (c *Controller) FetchNotes(ctx context.Context) error {
	list, err := c.store.ListNotes(ctx)
	if err != nil {
		slog.Error("failed to fetch notes", "error", err)
		c.mu.Lock()
		c.message = MsgLoadFailed
		c.mu.Unlock()
		return fmt.Errorf("fetch notes: %w", err)
	}

	c.mu.Lock()
	c.notes = list
	c.mu.Unlock()
	return nil
}

// DeleteNote removes a note after the user confirms. The list is refreshed
// only when the delete succeeds.
func (c *Controller) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if !c.confirm.Confirm(DeletePrompt) {
		return ErrCancelled
	}

	if err := c.store.DeleteNote(ctx, id); err != nil {
		slog.Error("failed to delete note", "id", id, "error", err)
		c.mu.Lock()
		c.message = MsgDeleteFailed
		c.mu.Unlock()
		return fmt.Errorf("delete note: %w", err)
	}

	return c.FetchNotes(ctx)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		DraftBytes: len(c.draft),
		Transcript: c.transcript,
		Notes:      append([]models.AudioNote(nil), c.notes...),
		Error:      c.message,
	}
}
