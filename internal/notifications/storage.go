package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ticketpoint/internal/shared/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// BlobStore keeps rendered ticket documents and returns where they can be fetched
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// NewBlobStore builds the store selected by configuration. The "none" backend
// returns nil and tickets are only attached to the mail.
func NewBlobStore(cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalBlobStore(cfg.LocalPath, cfg.PublicBaseURL)
	case "cloudinary":
		return NewCloudinaryBlobStore(cfg.Cloudinary)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LocalBlobStore writes documents below a directory
type LocalBlobStore struct {
	root    string
	baseURL string
}

func NewLocalBlobStore(root, publicBaseURL string) (*LocalBlobStore, error) {
	if root == "" {
		return nil, errors.New("local storage path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalBlobStore{root: root, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *LocalBlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name)
	target := filepath.Join(s.root, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}

	if s.baseURL == "" {
		return target, nil
	}
	return s.baseURL + "/" + name, nil
}

type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryBlobStore uploads documents as raw assets
type CloudinaryBlobStore struct {
	upload cloudinaryUploader
	folder string
}

func NewCloudinaryBlobStore(cfg config.CloudinaryConfig) (*CloudinaryBlobStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}
	return &CloudinaryBlobStore{upload: &cld.Upload, folder: cfg.Folder}, nil
}

func (s *CloudinaryBlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	// Raw assets keep their extension in the public id
	publicID := path.Base(name)

	result, err := s.upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to cloudinary: %w", name, err)
	}
	if result == nil || result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned no url for %s", name)
	}
	return result.SecureURL, nil
}
