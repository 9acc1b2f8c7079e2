package supabase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Ensure Storage implements domain.BlobStore.
var _ domain.BlobStore = (*Storage)(nil)

// Storage is the Supabase Storage adapter.
type Storage struct {
	client *Client
}

// NewStorage creates the blob store adapter.
func NewStorage(client *Client) *Storage {
	return &Storage{client: client}
}

func objectPath(bucket, path string) string {
	return escapeSegments(bucket) + "/" + escapeSegments(strings.TrimLeft(path, "/"))
}

// Upload stores the content at path inside bucket, replacing any existing object.
func (s *Storage) Upload(ctx context.Context, bucket, path, contentType string, r io.Reader) error {
	return s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + objectPath(bucket, path),
		reader: r,
		headers: map[string]string{
			"Content-Type":  contentType,
			"x-upsert":      "true",
			"Cache-Control": "max-age=3600",
		},
	})
}

// PublicURL returns the public object URL. The bucket must be public.
func (s *Storage) PublicURL(bucket, path string) string {
	return s.client.baseURL + "/storage/v1/object/public/" + objectPath(bucket, path)
}

func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
