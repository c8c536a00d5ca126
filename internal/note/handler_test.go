package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notestash/internal/note/model"
	"notestash/internal/note/service"
	"notestash/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// In-memory collaborators, enough to drive the full HTTP surface.

type memRepo struct {
	notes  map[int64]model.Note
	nextID int64
}

func (r *memRepo) Create(ctx context.Context, title, content string, imageKey *string) (model.Note, error) {
	r.nextID++
	now := time.Now()
	n := model.Note{ID: r.nextID, Title: title, Content: content, ImageKey: imageKey, CreatedAt: now, UpdatedAt: now}
	r.notes[n.ID] = n
	return n, nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (model.Note, error) {
	n, ok := r.notes[id]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	return n, nil
}

func (r *memRepo) List(ctx context.Context) ([]model.Note, error) {
	notes := []model.Note{}
	for i := r.nextID; i >= 1; i-- {
		if n, ok := r.notes[i]; ok {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, title, content string, imageKey *string) (model.Note, error) {
	n, ok := r.notes[id]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	n.Title = title
	n.Content = content
	n.ImageKey = imageKey
	n.UpdatedAt = time.Now()
	r.notes[id] = n
	return n, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) (model.Note, error) {
	n, ok := r.notes[id]
	if !ok {
		return model.Note{}, model.ErrNotFound
	}
	delete(r.notes, id)
	return n, nil
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStore) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (s *memStore) SignPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://upload.example/" + key, nil
}

func newTestMux() (*http.ServeMux, *memRepo, *memStore) {
	repo := &memRepo{notes: map[int64]model.Note{}}
	store := &memStore{objects: map[string][]byte{}}
	h := NewNoteHandler(service.NewNoteService(repo, store))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes", h.GetNotes)
	mux.HandleFunc("GET /api/notes/upload-url", h.GetUploadURL)
	mux.HandleFunc("GET /api/notes/{id}", h.GetNote)
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("PUT /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)
	return mux, repo, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) model.Note {
	var n model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	return n
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]string{"title": "Groceries", "content": "milk, eggs"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeNote(t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Groceries", created.Title)
	assert.Equal(t, "milk, eggs", created.Content)
	assert.Nil(t, created.ImageKey)
	assert.Empty(t, created.ImageDisplayURL)

	rec = doJSON(t, mux, http.MethodGet, "/api/notes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeNote(t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, "milk, eggs", got.Content)
	assert.NotContains(t, rec.Body.String(), "image_display_url")
}

func TestCreateMissingTitle(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]string{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvalidJSON(t *testing.T) {
	mux, _, _ := newTestMux()

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetNoteNotFound(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodGet, "/api/notes/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Note not found"}`, rec.Body.String())

	rec = doJSON(t, mux, http.MethodGet, "/api/notes/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMultipartCreateWithImage(t *testing.T) {
	mux, _, store := newTestMux()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "With image"))
	require.NoError(t, mw.WriteField("content", "body"))
	part, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/notes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeNote(t, rec)
	require.NotNil(t, created.ImageKey)
	assert.Equal(t, []byte("png bytes"), store.objects[*created.ImageKey])

	// Reading it back yields a fresh display URL.
	rec = doJSON(t, mux, http.MethodGet, "/api/notes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeNote(t, rec)
	assert.Equal(t, "https://signed.example/"+*created.ImageKey, got.ImageDisplayURL)
}

func TestMultipartCreateWithoutImage(t *testing.T) {
	mux, _, store := newTestMux()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "No image"))
	require.NoError(t, mw.WriteField("content", ""))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/notes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeNote(t, rec)
	assert.Nil(t, created.ImageKey)
	assert.Empty(t, store.objects)
}

func TestUpdateNote(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]string{"title": "Before", "content": "old"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPut, "/api/notes/1", map[string]string{"title": "After", "content": "new"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeNote(t, rec)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "new", updated.Content)

	rec = doJSON(t, mux, http.MethodPut, "/api/notes/99", map[string]string{"title": "X", "content": ""})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReplacesImageViaKey(t *testing.T) {
	mux, _, store := newTestMux()

	// Simulate a presigned direct upload, then create referencing the key.
	store.objects["oldkey"] = []byte("old")
	rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]interface{}{"title": "T", "content": "", "image_key": "oldkey"})
	require.Equal(t, http.StatusCreated, rec.Code)

	store.objects["newkey"] = []byte("new")
	rec = doJSON(t, mux, http.MethodPut, "/api/notes/1", map[string]interface{}{"title": "T", "content": "", "image_key": "newkey"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeNote(t, rec)
	require.NotNil(t, updated.ImageKey)
	assert.Equal(t, "newkey", *updated.ImageKey)

	_, oldExists := store.objects["oldkey"]
	assert.False(t, oldExists, "the replaced blob must be unreachable")
}

func TestDeleteNote(t *testing.T) {
	mux, _, store := newTestMux()

	store.objects["imgkey"] = []byte("img")
	rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]interface{}{"title": "T", "content": "", "image_key": "imgkey"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/notes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Note deleted"}`, rec.Body.String())
	assert.Empty(t, store.objects, "the blob goes with the row")

	rec = doJSON(t, mux, http.MethodGet, "/api/notes/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/notes/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListNotes(t *testing.T) {
	mux, _, _ := newTestMux()

	for _, title := range []string{"first", "second"} {
		rec := doJSON(t, mux, http.MethodPost, "/api/notes", map[string]string{"title": title, "content": ""})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Title)
	assert.Equal(t, "first", notes[1].Title)
}

func TestGetUploadURL(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := doJSON(t, mux, http.MethodGet, "/api/notes/upload-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var slot model.UploadSlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	assert.NotEmpty(t, slot.Key)
	assert.Equal(t, "https://upload.example/"+slot.Key, slot.UploadURL)
}
