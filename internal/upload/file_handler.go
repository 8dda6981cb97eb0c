// Package upload validates uploaded files and writes them to storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inhahackathon/foodmarket/internal/apperr"
)

// Putter is the part of storage.Storage used for uploads.
type Putter interface {
	Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) error
}

// File is an uploaded file as received from the client.
type File struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// FileHandler names uploaded files and stores them below /profile or /board/{id}.
type FileHandler struct {
	storage    Putter
	extensions map[string]struct{}
	now        func() time.Time
	newID      func() string
}

func NewFileHandler(storage Putter, allowExtensions []string) *FileHandler {
	extensions := make(map[string]struct{}, len(allowExtensions))
	for _, ext := range allowExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			extensions[ext] = struct{}{}
		}
	}
	return &FileHandler{
		storage:    storage,
		extensions: extensions,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// SaveFile stores file and returns its public path. A nil boardID stores a
// profile image.
func (h *FileHandler) SaveFile(ctx context.Context, boardID *int64, file File) (string, error) {
	if !validFilename(file.Filename) {
		return "", apperr.New(apperr.ErrFileUploadFailed, "not allowed filename: %q", file.Filename)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if _, ok := h.extensions[ext]; !ok {
		return "", apperr.New(apperr.ErrFileUploadFailed, "not allowed extension: %q", file.Filename)
	}

	name := fmt.Sprintf("%d_%s.%s", h.now().UnixNano(), h.newID(), ext)
	dest := Dir(boardID) + "/" + name

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension("." + ext); byExt != "" {
			contentType = byExt
		}
	}

	if err := h.storage.Put(ctx, dest, file.Content, file.Size, contentType); err != nil {
		return "", apperr.Wrap(apperr.ErrFileUploadFailed, err, "failed to save file")
	}
	return dest, nil
}

// Dir returns the public directory for a board's images, or the profile directory.
func Dir(boardID *int64) string {
	if boardID == nil {
		return "/profile"
	}
	return "/board/" + strconv.FormatInt(*boardID, 10)
}

// validFilename accepts a bare file name with an extension.
func validFilename(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") || strings.Contains(name, "..") {
		return false
	}
	if filepath.Base(name) != name {
		return false
	}
	ext := filepath.Ext(name)
	return ext != "" && ext != "." && ext != name
}
