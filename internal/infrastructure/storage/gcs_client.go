package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// AttachmentStore keeps chat attachments in a Cloud Storage bucket.
// Objects live under attachments/{conversationID}/ so a conversation's
// files stay grouped.
type AttachmentStore struct {
	client     *storage.Client
	bucketName string
}

func NewAttachmentStore(ctx context.Context, bucketName, credentialsPath string) (*AttachmentStore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &AttachmentStore{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Upload writes the attachment and returns its public URL.
func (s *AttachmentStore) Upload(ctx context.Context, file io.Reader, contentType, conversationID string) (string, error) {
	filename := fmt.Sprintf("attachments/%s/%s-%s", conversationID, uuid.New().String(), time.Now().Format("20060102150405"))

	switch contentType {
	case "image/jpeg", "image/jpg":
		filename += ".jpg"
	case "image/png":
		filename += ".png"
	case "image/gif":
		filename += ".gif"
	case "application/pdf":
		filename += ".pdf"
	default:
		filename += ".bin"
	}

	obj := s.client.Bucket(s.bucketName).Object(filename)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, filename), nil
}

func (s *AttachmentStore) Delete(ctx context.Context, fileURL string) error {
	const prefix = "https://storage.googleapis.com/"
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("invalid GCS URL format")
	}

	path := fileURL[len(prefix):]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] != s.bucketName {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	obj := s.client.Bucket(s.bucketName).Object(parts[1])
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}

	return nil
}

func (s *AttachmentStore) Close() error {
	return s.client.Close()
}
