package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/taskhub/taskhub/internal/observability"
)

const (
	maxAvatarSize    = 5 * 1024 * 1024 // 5 MB
	maxAvatarWidth   = 200
	presignedURLTTL  = 15 * time.Minute
	avatarPathPrefix = "avatars"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrInvalidObjectKey     = errors.New("invalid object key")

	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService defines the interface for avatar object storage.
type StorageService interface {
	// UploadAvatar validates, resizes and stores an avatar image, returning
	// the object key.
	UploadAvatar(ctx context.Context, file io.Reader, fileSize int64) (string, error)

	// DeleteAvatar deletes an avatar by object key. Empty keys are a no-op.
	DeleteAvatar(ctx context.Context, objectKey string) error

	// GenerateAvatarURL generates a presigned GET URL for avatar access.
	GenerateAvatarURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOStorageService implements StorageService using MinIO/S3-compatible storage.
type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
	initOnce   sync.Once
	initErr    error
}

// NewMinIOStorageService creates a MinIO-backed storage service.
// Bucket creation is deferred until the first operation to avoid blocking app startup.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStorageService{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Client exposes the underlying MinIO client for health checks.
func (s *MinIOStorageService) Client() *minio.Client {
	return s.client
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOStorageService) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

// UploadAvatar validates the upload, scales it down to at most
// maxAvatarWidth pixels wide (aspect ratio preserved, never upscaled) and
// stores the re-encoded image. Content type is detected from the actual
// bytes, not the client-provided header.
func (s *MinIOStorageService) UploadAvatar(ctx context.Context, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxAvatarSize {
		observability.RecordStorageOperation(ctx, "put", "too_big")
		return "", ErrFileTooBig
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		observability.RecordStorageOperation(ctx, "put", "error")
		return "", fmt.Errorf("%w: read upload: %v", ErrUploadFailed, err)
	}
	if int64(len(raw)) > maxAvatarSize {
		observability.RecordStorageOperation(ctx, "put", "too_big")
		return "", ErrFileTooBig
	}

	detectedType := strings.ToLower(strings.TrimSpace(http.DetectContentType(raw)))
	if _, allowed := allowedContentTypes[detectedType]; !allowed {
		observability.RecordStorageOperation(ctx, "put", "invalid_type")
		return "", ErrInvalidFileType
	}

	encoded, err := normalizeAvatarImage(raw, detectedType)
	if err != nil {
		observability.RecordStorageOperation(ctx, "put", "invalid_type")
		return "", err
	}

	if err := s.lazyInit(ctx); err != nil {
		observability.RecordStorageOperation(ctx, "put", "error")
		return "", err
	}

	fileExt := contentTypeToExtension(detectedType)
	objectKey := fmt.Sprintf("%s/%s%s", avatarPathPrefix, uuid.New().String(), fileExt)

	metadata := map[string]string{
		"Detected-Content-Type": detectedType,
		"Uploaded-At":           time.Now().UTC().Format(time.RFC3339),
	}

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(encoded), int64(len(encoded)), minio.PutObjectOptions{
		ContentType:  detectedType,
		UserMetadata: metadata,
	})
	if err != nil {
		observability.RecordStorageOperation(ctx, "put", "error")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	observability.RecordStorageOperation(ctx, "put", "success")
	return objectKey, nil
}

// DeleteAvatar deletes an avatar object. Empty keys are a no-op so callers
// can pass the stored reference unconditionally.
func (s *MinIOStorageService) DeleteAvatar(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") || !strings.HasPrefix(objectKey, avatarPathPrefix+"/") {
		observability.RecordStorageOperation(ctx, "delete", "invalid_key")
		return ErrInvalidObjectKey
	}

	if err := s.lazyInit(ctx); err != nil {
		observability.RecordStorageOperation(ctx, "delete", "error")
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordStorageOperation(ctx, "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordStorageOperation(ctx, "delete", "success")
	return nil
}

// GenerateAvatarURL generates a presigned GET URL for avatar access.
func (s *MinIOStorageService) GenerateAvatarURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presignedURL.String(), nil
}

// normalizeAvatarImage decodes the upload and scales it to at most
// maxAvatarWidth pixels wide. Images already within the limit are
// re-encoded unchanged.
func normalizeAvatarImage(raw []byte, contentType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrInvalidFileType, err)
	}

	if img.Bounds().Dx() > maxAvatarWidth {
		img = imaging.Resize(img, maxAvatarWidth, 0, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, contentTypeToFormat(contentType)); err != nil {
		return nil, fmt.Errorf("%w: encode image: %v", ErrUploadFailed, err)
	}
	return out.Bytes(), nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

func contentTypeToFormat(contentType string) imaging.Format {
	if contentType == "image/png" {
		return imaging.PNG
	}
	return imaging.JPEG
}
