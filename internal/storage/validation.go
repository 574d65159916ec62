package storage

import (
	"fmt"
	"strings"
)

// allowedContentTypes lists what tenants may upload: listing photos,
// floor-plan documents and archived call audio.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,

	"application/pdf": true,

	"audio/mpeg":  true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/ogg":   true,
}

func (s *MinIOService) ValidateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}

// IsImageContentType reports whether the content type is an image. Property
// photo endpoints accept only these.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
