package upload

import (
	"context"
	"io"
)

// DefaultMaxSize is the upload limit when none is configured
const DefaultMaxSize = 10 << 20

// AllowedTypes maps accepted sniffed content types to their file extension
var AllowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"video/mp4":       ".mp4",
}

// Result describes a stored file
type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Service stores admin uploads
type Service interface {
	Upload(ctx context.Context, body io.Reader, size int64) (*Result, error)
}
