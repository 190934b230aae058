package filestorage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/pkg/logger"
)

// MaxImageSize bounds uploaded and inline images
const MaxImageSize = 5 << 20

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The base URL the stored files are served from
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the directory on the server; baseURL is prepended to returned paths.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveFileWithPath saves an uploaded image to a subdirectory
func (ls *LocalStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}
	if fileHeader.Size > MaxImageSize {
		return "", ErrTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}

	url, err := ls.write(data, subPath)
	if err != nil {
		return "", err
	}
	logger.Info().Str("filename", fileHeader.Filename).Str("url", url).Msg("File saved successfully")
	return url, nil
}

// SaveFile saves an uploaded file using the default path
func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader) (string, error) {
	return ls.SaveFileWithPath(fileHeader, "")
}

// SaveDataURI stores a base64 data: URI such as "data:image/png;base64,...."
func (ls *LocalStorage) SaveDataURI(dataURI, subPath string) (string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURI, "data:"), ",")
	if !ok || !IsDataURI(dataURI) || !strings.HasSuffix(header, ";base64") {
		return "", ErrInvalidDataURI
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return "", ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	url, err := ls.write(data, subPath)
	if err != nil {
		return "", err
	}
	logger.Info().Str("url", url).Int("bytes", len(data)).Msg("Inline image saved")
	return url, nil
}

// write sniffs data, rejects non-images and stores it under a fresh name
func (ls *LocalStorage) write(data []byte, subPath string) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, mt.String())
	}

	dir := ls.basePath
	if subPath != "" {
		dir = filepath.Join(ls.basePath, subPath)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
			return "", fmt.Errorf("failed to create subdirectory: %w", err)
		}
	}

	name := uuid.New().String() + mt.Extension()
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dst).Msg("Failed to write file")
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(ls.baseURL)
	if subPath != "" {
		buf.WriteString("/" + strings.Trim(filepath.ToSlash(subPath), "/"))
	}
	buf.WriteString("/" + name)
	return buf.String(), nil
}

// DeleteFile removes a stored file given the URL returned on save.
// Deleting a file that does not exist is not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	if fileURL == "" {
		return nil
	}

	physicalPath := ls.GetFullPath(fileURL)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", fileURL)
	}

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// GetFullPath maps a URL returned by this storage back to its file. URLs
// outside the storage resolve to "".
func (ls *LocalStorage) GetFullPath(fileURL string) string {
	rel := strings.TrimPrefix(fileURL, ls.baseURL)
	if rel == fileURL && ls.baseURL != "" {
		return ""
	}

	clean := filepath.Clean("/" + strings.TrimLeft(rel, "/"))
	if clean == "/" {
		return ""
	}
	return filepath.Join(ls.basePath, clean)
}
