package filestorage

import (
	"errors"
	"mime/multipart"
)

// Errors returned for rejected inline images
var (
	ErrInvalidDataURI = errors.New("invalid data URI")
	ErrNotAnImage     = errors.New("content is not an image")
	ErrTooLarge       = errors.New("file exceeds size limit")
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile saves a file and returns the URL it is served from
	SaveFile(fileHeader *multipart.FileHeader) (string, error)

	// SaveFileWithPath lets you specify a subdirectory for storing the file
	SaveFileWithPath(fileHeader *multipart.FileHeader, path string) (string, error)

	// SaveDataURI decodes a base64 data: URI holding an image and stores it
	SaveDataURI(dataURI, path string) (string, error)

	// DeleteFile removes a file from storage
	DeleteFile(filePath string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}

// IsDataURI reports whether s is an inline data: URI rather than a URL
func IsDataURI(s string) bool {
	return len(s) > 5 && s[:5] == "data:"
}
