package filestore

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

var (
	ErrInvalidFileFormat = errors.New("invalid file format. only .jpg, .jpeg, .png are allowed")
	ErrFileSizeExceeded  = errors.New("file size exceeds limit")
)

const MaxFileSize = 5 * 1024 * 1024 // 5MB

var allowedExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Subdirectories used by the services
const (
	ProfilePicturesDir = "profilePictures"
	ProductImagesDir   = "images"
)

// FileStore saves and deletes uploaded images under a base directory.
// Directories are created lazily on first write.
type FileStore struct {
	baseDir string
}

// New creates a FileStore rooted at baseDir
func New(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// BaseDir returns the root directory of the store
func (fs *FileStore) BaseDir() string {
	return fs.baseDir
}

// Save writes an uploaded file under baseDir/subdir with a collision-free
// UUID name and returns the slash-separated path relative to baseDir, which is
// what gets recorded in the database.
func (fs *FileStore) Save(fileHeader *multipart.FileHeader, subdir string) (string, error) {
	if fileHeader.Size > MaxFileSize {
		return "", ErrFileSizeExceeded
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExts[ext] {
		return "", ErrInvalidFileFormat
	}

	dir := filepath.Join(fs.baseDir, subdir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := uuid.NewString() + ext
	filePath := filepath.Join(dir, fileName)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(subdir, fileName)), nil
}

// Delete removes a previously saved file by its relative path. Deleting a
// missing file is not an error, so callers can retry safely.
func (fs *FileStore) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(fs.baseDir, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", relPath, err)
	}
	return nil
}

// Exists reports whether a stored file is present on disk
func (fs *FileStore) Exists(relPath string) bool {
	if relPath == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(fs.baseDir, filepath.FromSlash(relPath)))
	return err == nil
}
