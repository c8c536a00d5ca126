package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"notestash/internal/note/model"
	"notestash/internal/note/service"
	"notestash/pkg/logger"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unrecognized,
// storage failures included, is a generic 500; no structured error codes
// are exposed to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, model.MsgResponse{Msg: "Note not found"})
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, model.MsgResponse{Msg: err.Error()})
	default:
		http.Error(w, "Server Error", http.StatusInternalServerError)
	}
}

func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, model.ErrNotFound
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// imageFromForm pulls the optional "image" part out of a multipart form.
// A missing part means the note has no image payload.
func imageFromForm(r *http.Request) (*service.ImageUpload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Service.List(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list notes: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	note, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Sugar.Errorf("Handler: Failed to get note %d: %v", id, err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	slot, err := h.Service.RequestUploadSlot(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to issue upload slot: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// CreateNote accepts either a multipart form carrying the image bytes
// (server-mediated upload) or a JSON body carrying an optional image_key
// from a prior presigned upload.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var note model.Note
	var err error

	if isMultipart(r) {
		img, imgErr := imageFromForm(r)
		if imgErr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		note, err = h.Service.CreateWithBytes(r.Context(), r.FormValue("title"), r.FormValue("content"), img)
	} else {
		var req model.NoteRequest
		if decErr := json.NewDecoder(r.Body).Decode(&req); decErr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		note, err = h.Service.CreateWithKey(r.Context(), req.Title, req.Content, req.ImageKey)
	}

	if err != nil {
		if !errors.Is(err, model.ErrValidation) {
			logger.Sugar.Errorf("Handler: Failed to create note: %v", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var note model.Note
	if isMultipart(r) {
		img, imgErr := imageFromForm(r)
		if imgErr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		note, err = h.Service.UpdateWithBytes(r.Context(), id, r.FormValue("title"), r.FormValue("content"), img)
	} else {
		var req model.NoteRequest
		if decErr := json.NewDecoder(r.Body).Decode(&req); decErr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		note, err = h.Service.UpdateWithKey(r.Context(), id, req.Title, req.Content, req.ImageKey)
	}

	if err != nil {
		if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrValidation) {
			logger.Sugar.Errorf("Handler: Failed to update note %d: %v", id, err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Sugar.Errorf("Handler: Failed to delete note %d: %v", id, err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MsgResponse{Msg: "Note deleted"})
}
