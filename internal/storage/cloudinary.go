package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// CloudinaryConfig holds account credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// UploadPrefix overrides the API host (tests point it at httptest).
	UploadPrefix string
}

// Cloudinary stores objects on Cloudinary.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

var _ Uploader = (*Cloudinary)(nil)

// NewCloudinary builds an authenticated client. It does not contact the API.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}

	conf, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: building config: %w", err)
	}
	// The client copies the configuration into each sub-API, so the prefix
	// must be set before construction.
	if cfg.UploadPrefix != "" {
		conf.API.UploadPrefix = cfg.UploadPrefix
	}

	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: creating client: %w", err)
	}

	return &Cloudinary{cld: cld}, nil
}

// Upload sends the object in one request. UniqueFilename is off so the
// public id we computed is the one Cloudinary keeps.
func (c *Cloudinary) Upload(ctx context.Context, obj Object) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, obj.Body, uploader.UploadParams{
		Folder:         obj.Folder,
		PublicID:       obj.PublicID,
		ResourceType:   string(obj.ResourceType),
		Overwrite:      api.Bool(obj.Overwrite),
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary: uploading %s/%s: %w", obj.Folder, obj.PublicID, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: uploading %s/%s: %s", obj.Folder, obj.PublicID, resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary: uploading %s/%s: empty secure_url in response", obj.Folder, obj.PublicID)
	}

	return resp.SecureURL, nil
}
