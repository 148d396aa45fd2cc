package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore keeps blobs in a Cloudinary folder. Images and PDFs are
// stored as "image" resources, anything else as "raw".
type CloudinaryStore struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
	folder       string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, uploadPreset, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, uploadPreset: uploadPreset, folder: strings.Trim(folder, "/")}, nil
}

// publicID maps a key to a Cloudinary public id. Image ids carry no
// extension because Cloudinary appends the detected format itself.
func (s *CloudinaryStore) publicID(key string) string {
	id := key
	if resourceType(key) == "image" {
		id = strings.TrimSuffix(key, path.Ext(key))
	}
	if s.folder != "" {
		id = s.folder + "/" + id
	}
	return id
}

func resourceType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".pdf":
		return "image"
	default:
		return "raw"
	}
}

func (s *CloudinaryStore) Put(ctx context.Context, key string, content io.Reader, _ string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	resp, err := s.cld.Upload.Upload(ctx, content, uploader.UploadParams{
		PublicID:     s.publicID(key),
		UploadPreset: s.uploadPreset,
		ResourceType: resourceType(key),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(key),
		ResourceType: resourceType(key),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	switch resp.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy: unexpected result %q", resp.Result)
	}
}
