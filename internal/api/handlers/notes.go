package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
)

type NoteHandler struct {
	svc       *notes.Service
	maxUpload int64
}

func NewNoteHandler(svc *notes.Service, maxUpload int64) *NoteHandler {
	return &NoteHandler{svc: svc, maxUpload: maxUpload}
}

// List returns every note, newest first.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		logFailure(r, "failed to load notes", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load notes"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": list, "count": len(list)})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid note ID"})
		return
	}

	note, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, notes.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}
	if err != nil {
		logFailure(r, "failed to load note", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load note"})
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Create stores the uploaded audio (field "file") together with the
// "transcription" field. An optional RFC 3339 "created_at" carries the
// client's clock.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := notes.SaveRequest{Transcription: r.FormValue("transcription")}

	if v := r.FormValue("created_at"); v != "" {
		at, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid created_at"})
			return
		}
		req.CreatedAt = at
	}

	file, header, err := r.FormFile(stt.FileField)
	if err == nil {
		defer file.Close()
		req.Audio, err = io.ReadAll(file)
		if err != nil {
			logFailure(r, "failed to read upload", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save note"})
			return
		}
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	}

	note, err := h.svc.Save(r.Context(), req)
	if errors.Is(err, notes.ErrNothingToSave) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to save"})
		return
	}
	if err != nil {
		logFailure(r, "failed to save note", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save note"})
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid note ID"})
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, notes.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}
	if err != nil {
		logFailure(r, "failed to delete note", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete note"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func logFailure(r *http.Request, msg string, err error) {
	slog.Error(msg, "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
}
