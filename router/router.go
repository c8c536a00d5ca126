package router

import (
	"database/sql"
	"encoding/json"
	"net/http"

	noteHandler "notestash/internal/note"
	"notestash/internal/note/repository"
	"notestash/internal/note/service"
	"notestash/internal/storage"
	"notestash/middleware"
)

func Setup(db *sql.DB, store storage.ObjectStore) http.Handler {
	mux := http.NewServeMux()

	noteRepo := repository.NewNoteRepository(db)
	noteService := service.NewNoteService(noteRepo, store)
	notes := noteHandler.NewNoteHandler(noteService)

	mux.HandleFunc("GET /api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "API is running"})
	})

	// The literal upload-url segment takes precedence over {id}.
	mux.HandleFunc("GET /api/notes", notes.GetNotes)
	mux.HandleFunc("GET /api/notes/upload-url", notes.GetUploadURL)
	mux.HandleFunc("GET /api/notes/{id}", notes.GetNote)
	mux.HandleFunc("POST /api/notes", notes.CreateNote)
	mux.HandleFunc("PUT /api/notes/{id}", notes.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", notes.DeleteNote)

	return middleware.CORSMiddleware(mux)
}
