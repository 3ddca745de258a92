package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/spartanofurioso/platform/internal/domain/upload"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/storage"
)

// sniffLen is how much of the body http.DetectContentType looks at
const sniffLen = 512

// UploadService implements upload.Service
type UploadService struct {
	store   storage.Storage
	maxSize int64
	logger  *logger.Logger
	now     func() time.Time
}

// NewUploadService creates a new upload service
func NewUploadService(store storage.Storage, maxSize int64, log *logger.Logger) upload.Service {
	if maxSize <= 0 {
		maxSize = upload.DefaultMaxSize
	}
	return &UploadService{
		store:   store,
		maxSize: maxSize,
		logger:  log,
		now:     time.Now,
	}
}

// Upload sniffs the content type and stores the file under uploads/YYYY/MM/<uuid><ext>
func (s *UploadService) Upload(ctx context.Context, body io.Reader, size int64) (*upload.Result, error) {
	if size <= 0 {
		return nil, errors.BadRequest("File is empty")
	}
	if size > s.maxSize {
		return nil, errors.PayloadTooLarge(fmt.Sprintf("File exceeds the %d MiB limit", s.maxSize>>20))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.BadRequest("Failed to read upload")
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := upload.AllowedTypes[contentType]
	if !ok {
		return nil, errors.ValidationError("Unsupported file type", map[string]string{"contentType": contentType})
	}

	now := s.now().UTC()
	key := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	reader := io.LimitReader(io.MultiReader(bytes.NewReader(head), body), s.maxSize)
	url, err := s.store.Put(ctx, key, contentType, reader, size)
	if err != nil {
		return nil, errors.Internal("Failed to store upload", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"key":          key,
		"size":         size,
		"content_type": contentType,
	}).Info("File uploaded")

	return &upload.Result{
		URL:         url,
		Key:         key,
		Size:        size,
		ContentType: contentType,
	}, nil
}
