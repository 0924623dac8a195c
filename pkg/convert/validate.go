package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrEmptyFile indicates a zero-length upload.
var ErrEmptyFile = errors.New("file is empty")

// ErrFileTooLarge indicates an upload over the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrDisallowedExtension indicates a filename outside the allow-list.
var ErrDisallowedExtension = errors.New("file type not allowed")

// ValidateUpload applies the caller-supplied upload policy: size cap and
// extension allow-list. A nil or empty allow-list permits any extension.
func ValidateUpload(content []byte, filename string, maxSize int64, allowedExts []string) error {
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(content), maxSize)
	}
	if len(allowedExts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedExts {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (allowed: %s)", ErrDisallowedExtension, ext, strings.Join(allowedExts, ", "))
}
