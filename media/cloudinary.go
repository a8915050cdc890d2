// Package media uploads image data to Cloudinary and hands back
// durable URLs. It is the only component that touches media storage.
package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from a CLOUDINARY_URL-style
// connection string.
func NewCloudinaryUploader(url string) (*CloudinaryUploader, error) {
	if url == "" {
		return nil, fmt.Errorf("cloudinary URL not configured")
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// DisabledUploader stands in when no Cloudinary URL is configured.
// Text-only traffic keeps working; anything carrying an image fails.
type DisabledUploader struct{}

func (DisabledUploader) Upload(ctx context.Context, data, folder string) (string, error) {
	return "", fmt.Errorf("image uploads are not configured")
}

// Upload stores the image (a data URI or remote URL) under the given
// folder and returns its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, data, folder string) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:         folder,
		Transformation: "c_limit,w_1080,h_1080,q_auto",
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
