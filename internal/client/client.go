// Package client is the HTTP client of the transcription relay and the notes
// API, as used by the recorder front-end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/audionotes/internal/models"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
)

// StatusError is returned for any non-2xx answer. Message and Kind come from
// the JSON error body when the server sent one.
type StatusError struct {
	Code    int
	Message string
	Kind    string
}

func (e *StatusError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A zero timeout waits
// indefinitely, like the browser did.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transcribe posts audio to the relay and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	body, contentType, err := audioForm(audio, filename, nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/transcribe", body, contentType, &out); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return out.Text, nil
}

// SaveNote uploads audio and transcript as a new note stamped with createdAt.
func (c *Client) SaveNote(ctx context.Context, audio []byte, filename, transcription string, createdAt time.Time) (*models.AudioNote, error) {
	fields := map[string]string{"transcription": transcription}
	if !createdAt.IsZero() {
		fields["created_at"] = createdAt.UTC().Format(time.RFC3339Nano)
	}
	body, contentType, err := audioForm(audio, filename, fields)
	if err != nil {
		return nil, err
	}

	var note models.AudioNote
	if err := c.do(ctx, http.MethodPost, "/api/v1/notes", body, contentType, &note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	return &note, nil
}

// ListNotes returns all notes, newest first.
func (c *Client) ListNotes(ctx context.Context) ([]models.AudioNote, error) {
	var out struct {
		Notes []models.AudioNote `json:"notes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notes", nil, "", &out); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out.Notes, nil
}

func (c *Client) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/notes/"+id.String(), nil, "", nil); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			se.Message = e.Error
			se.Kind = e.Kind
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func audioForm(audio []byte, filename string, fields map[string]string) (io.Reader, string, error) {
	if filename == "" {
		filename = "recording.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, stt.FileField, filepath.Base(filename)))
	h.Set("Content-Type", contentTypeFor(filename))
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webm":
		return "audio/webm"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "audio/wav"
	}
}
