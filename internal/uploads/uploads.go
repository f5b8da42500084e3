package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var ErrInvalidFileType = errors.New("invalid file type")

// Store saves event images on local disk. Only the resulting URL string is
// persisted with the event; the files themselves stay outside the store.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

// Save writes the uploaded file under a uuid-prefixed name and returns the
// stored filename. The extension allow-list matches the mobile client's
// supported image formats.
func (s *Store) Save(eventID int64, header *multipart.FileHeader, file multipart.File) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFileType
	}

	filename := fmt.Sprintf("event_%d_%s%s", eventID, uuid.New().String(), ext)
	path := filepath.Join(s.Dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return filename, nil
}
