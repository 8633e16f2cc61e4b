package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("file storage is not configured")

// BlobStore stores attachment bytes and hands back a public URL.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ObjectName builds a collision-free key for a task's file.
func ObjectName(taskID uint, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	return fmt.Sprintf("tasks/%d/%s-%s", taskID, uuid.NewString(), base)
}

// Firebase writes to a Cloud Storage bucket obtained from the Firebase app.
type Firebase struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebase(bucket *gcs.BucketHandle, bucketName string) *Firebase {
	return &Firebase{bucket: bucket, bucketName: bucketName}
}

// Put stores the object with a Firebase download token so the returned URL
// can be opened without credentials, even on private buckets.
func (f *Firebase) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	token := uuid.NewString()
	w := f.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	return DownloadURL(f.bucketName, name, token), nil
}

// DownloadURL is the Firebase Storage REST link for an object carrying a download token.
func DownloadURL(bucket, name, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		url.PathEscape(bucket), url.PathEscape(name), url.QueryEscape(token))
}

// Disabled rejects every upload; used when Firebase is not configured.
type Disabled struct{}

func (Disabled) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return "", ErrNotConfigured
}
