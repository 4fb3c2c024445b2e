// Package storage keeps kid avatars in Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// AvatarStore uploads avatars to a GCS bucket and returns their public URLs
type AvatarStore struct {
	client *storage.Client
	bucket string
}

// NewAvatarStore creates a store for bucket. When credentialsFile is empty,
// Application Default Credentials are used.
func NewAvatarStore(ctx context.Context, bucket, credentialsFile string) (*AvatarStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &AvatarStore{client: client, bucket: bucket}, nil
}

// Upload writes the avatar under avatars/<kidID>/ and returns its public URL
func (s *AvatarStore) Upload(ctx context.Context, kidID, filename, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := ObjectName(kidID, filename, time.Now())
	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy avatar to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize avatar upload: %w", err)
	}

	return PublicURL(s.bucket, objectName), nil
}

// Delete removes the object behind avatarURL. URLs outside this bucket's
// avatar prefix and objects that are already gone are ignored.
func (s *AvatarStore) Delete(ctx context.Context, avatarURL string) error {
	objectName, ok := ObjectNameFromURL(s.bucket, avatarURL)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := s.client.Bucket(s.bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete avatar %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client
func (s *AvatarStore) Close() error {
	return s.client.Close()
}

// ObjectName builds a unique object path for a kid's avatar, keeping only the file extension
func ObjectName(kidID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return fmt.Sprintf("avatars/%s/%d%s", kidID, now.UnixMilli(), ext)
}

// PublicURL returns the HTTPS URL of an object in a public bucket
func PublicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, (&url.URL{Path: objectName}).EscapedPath())
}

// ObjectNameFromURL reverses PublicURL for avatar objects in bucket
func ObjectNameFromURL(bucket, avatarURL string) (string, bool) {
	u, err := url.Parse(avatarURL)
	if err != nil || u.Host != "storage.googleapis.com" {
		return "", false
	}
	objectName, found := strings.CutPrefix(u.Path, "/"+bucket+"/")
	if !found || !strings.HasPrefix(objectName, "avatars/") || strings.Contains(objectName, "..") {
		return "", false
	}
	return objectName, true
}
