package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"notestash/internal/note/model"
	"notestash/internal/storage"
	"notestash/pkg/logger"
)

const (
	// Display URLs are recomputed on every read, so a short window is fine.
	displayURLTTL = 3600 * time.Second
	// Upload URLs authorize a single direct PUT and expire quickly.
	uploadURLTTL = 60 * time.Second
)

// Repository is the row-store capability the service depends on.
// NoteRepository implements it; tests substitute fakes.
type Repository interface {
	Create(ctx context.Context, title, content string, imageKey *string) (model.Note, error)
	GetByID(ctx context.Context, id int64) (model.Note, error)
	List(ctx context.Context) ([]model.Note, error)
	Update(ctx context.Context, id int64, title, content string, imageKey *string) (model.Note, error)
	Delete(ctx context.Context, id int64) (model.Note, error)
}

// ImageUpload is a server-mediated image payload: the raw bytes arrive
// with the note fields in one multipart request.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// NoteService keeps the notes table and the object store consistent: a
// note's image key always names a live blob (or is null), and blobs are
// deleted once no row references them. The ordering rules live here and
// are enforced by sequential execution within a request, not by locks.
type NoteService struct {
	Repo  Repository
	Store storage.ObjectStore
}

func NewNoteService(repo Repository, store storage.ObjectStore) *NoteService {
	return &NoteService{Repo: repo, Store: store}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	return nil
}

// withDisplayURL fills in a signed GET URL for the note's image, if any.
// Signing failures degrade that one note (returned without a URL) rather
// than failing the whole read; availability wins here.
func (s *NoteService) withDisplayURL(ctx context.Context, n model.Note) model.Note {
	if n.ImageKey == nil {
		return n
	}
	url, err := s.Store.SignGetURL(ctx, *n.ImageKey, displayURLTTL)
	if err != nil {
		logger.Sugar.Warnf("Serving note %d without display URL, signing failed for key %s: %v", n.ID, *n.ImageKey, err)
		return n
	}
	n.ImageDisplayURL = url
	return n
}

func (s *NoteService) List(ctx context.Context) ([]model.Note, error) {
	notes, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i] = s.withDisplayURL(ctx, notes[i])
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, id int64) (model.Note, error) {
	n, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}
	return s.withDisplayURL(ctx, n), nil
}

// CreateWithBytes creates a note, uploading the image (if any) to the
// object store first. The blob must exist before the row references it:
// a failed upload means no note is created. The reverse failure (blob
// written, row insert fails) leaves an orphaned blob; without a two-phase
// commit across both stores that gap is accepted and logged.
func (s *NoteService) CreateWithBytes(ctx context.Context, title, content string, img *ImageUpload) (model.Note, error) {
	if err := validateTitle(title); err != nil {
		return model.Note{}, err
	}

	var imageKey *string
	if img != nil {
		key := storage.NewKey()
		if err := s.Store.Put(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
			return model.Note{}, err
		}
		imageKey = &key
	}

	n, err := s.Repo.Create(ctx, title, content, imageKey)
	if err != nil {
		if imageKey != nil {
			logger.Sugar.Warnf("Note insert failed after blob write, key %s is orphaned: %v", *imageKey, err)
		}
		return model.Note{}, err
	}
	return n, nil
}

// CreateWithKey creates a note referencing an already-uploaded blob. The
// client obtained the key from RequestUploadSlot and uploaded directly;
// the service trusts that the upload happened and does not check the key
// exists before persisting it.
func (s *NoteService) CreateWithKey(ctx context.Context, title, content string, imageKey *string) (model.Note, error) {
	if err := validateTitle(title); err != nil {
		return model.Note{}, err
	}
	return s.Repo.Create(ctx, title, content, imageKey)
}

// UpdateWithBytes updates a note, replacing its image when a new payload
// is supplied. Ordering: new blob written, row repointed, old blob
// deleted last, so a crash mid-sequence leaves the row naming a live
// blob, never a deleted one. An old-blob delete failure after the row
// has committed is an orphan, logged and not retried.
func (s *NoteService) UpdateWithBytes(ctx context.Context, id int64, title, content string, img *ImageUpload) (model.Note, error) {
	if err := validateTitle(title); err != nil {
		return model.Note{}, err
	}

	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}

	imageKey := existing.ImageKey
	if img != nil {
		key := storage.NewKey()
		if err := s.Store.Put(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
			return model.Note{}, err
		}
		imageKey = &key
	}

	updated, err := s.Repo.Update(ctx, id, title, content, imageKey)
	if err != nil {
		if img != nil {
			logger.Sugar.Warnf("Note update failed after blob write, key %s is orphaned: %v", *imageKey, err)
		}
		return model.Note{}, err
	}

	if img != nil && existing.ImageKey != nil {
		s.deleteBlobForRow(ctx, updated.ID, *existing.ImageKey)
	}
	return updated, nil
}

// UpdateWithKey updates a note with a client-supplied image key. A nil
// key leaves the current image untouched; a new key repoints the row and
// then deletes the previous blob.
func (s *NoteService) UpdateWithKey(ctx context.Context, id int64, title, content string, imageKey *string) (model.Note, error) {
	if err := validateTitle(title); err != nil {
		return model.Note{}, err
	}

	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}

	newKey := existing.ImageKey
	if imageKey != nil {
		newKey = imageKey
	}

	updated, err := s.Repo.Update(ctx, id, title, content, newKey)
	if err != nil {
		return model.Note{}, err
	}

	if imageKey != nil && existing.ImageKey != nil && *existing.ImageKey != *imageKey {
		s.deleteBlobForRow(ctx, updated.ID, *existing.ImageKey)
	}
	return updated, nil
}

// Delete removes the row first, then the blob it referenced. Once the
// row is gone it cannot be restored, so a failed blob delete leaves an
// orphan and the operation still succeeds.
func (s *NoteService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted.ImageKey != nil {
		s.deleteBlobForRow(ctx, id, *deleted.ImageKey)
	}
	return nil
}

// RequestUploadSlot issues a fresh key and a short-lived presigned PUT
// URL bound to it, for clients that upload directly to the store.
func (s *NoteService) RequestUploadSlot(ctx context.Context) (model.UploadSlotResponse, error) {
	key := storage.NewKey()
	url, err := s.Store.SignPutURL(ctx, key, uploadURLTTL)
	if err != nil {
		return model.UploadSlotResponse{}, err
	}
	return model.UploadSlotResponse{UploadURL: url, Key: key}, nil
}

func (s *NoteService) deleteBlobForRow(ctx context.Context, id int64, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		logger.Sugar.Warnf("Blob delete failed for note %d, key %s is orphaned: %v", id, key, err)
	}
}
