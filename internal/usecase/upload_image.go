package usecase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// UploadImageInput contains the file to upload.
type UploadImageInput struct {
	Content    io.Reader // Optional; Attachment.Path is opened when nil
	Attachment domain.Attachment
}

// UploadImageOutput contains the stored object's location.
type UploadImageOutput struct {
	Path string // Object path inside the bucket
	URL  string // Public URL
}

// UploadImage is the use case for storing an attachment in the blob store.
// Fields are ordered to minimize memory padding.
type UploadImage struct {
	blobs     domain.BlobStore
	clock     domain.Clock
	logger    domain.Logger
	bucket    string
	namespace string
}

// NewUploadImage creates a new UploadImage use case.
func NewUploadImage(blobs domain.BlobStore, clock domain.Clock, logger domain.Logger, bucket, namespace string) *UploadImage {
	return &UploadImage{
		blobs:     blobs,
		clock:     clock,
		logger:    logger,
		bucket:    bucket,
		namespace: namespace,
	}
}

// Execute uploads the file to <namespace>/<unix-millis>-<name> and
// resolves its public URL.
func (uc *UploadImage) Execute(ctx context.Context, in UploadImageInput) (*UploadImageOutput, error) {
	name := in.Attachment.Name
	if name == "" {
		name = filepath.Base(in.Attachment.Path)
	}

	content := in.Content
	if content == nil {
		f, err := os.Open(in.Attachment.Path)
		if err != nil {
			return nil, domain.NewError(domain.KindUpload, "open attachment", err)
		}
		defer func() { _ = f.Close() }()
		content = f
	}

	path := domain.StoragePath(uc.namespace, name, uc.clock.Now())
	if err := uc.blobs.Upload(ctx, uc.bucket, path, contentType(name), content); err != nil {
		return nil, domain.NewError(domain.KindUpload, "upload image", err)
	}

	url := uc.blobs.PublicURL(uc.bucket, path)
	if url == "" {
		return nil, domain.NewError(domain.KindUpload, "public url", fmt.Errorf("no public url for %s", path))
	}
	uc.logger.Info(catUpload, fmt.Sprintf("uploaded %s to %s/%s", name, uc.bucket, path))
	return &UploadImageOutput{Path: path, URL: url}, nil
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
