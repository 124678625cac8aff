package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	url, err := store.Upload(context.Background(), []byte("jpeg"), "news/2026/10/a.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:8080/media/news/2026/10/a.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "news", "2026", "10", "a.jpg"))
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("unexpected file contents %q, %v", data, err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://x")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := store.Upload(context.Background(), nil, "../escape.jpg", "image/jpeg"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreUpload(t *testing.T) {
	fake := &fakeS3{}
	store := newS3StoreWithClient(fake, "media", "https://cdn.example.com")

	url, err := store.Upload(context.Background(), []byte("data"), "news/2026/10/b.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example.com/news/2026/10/b.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if *fake.input.Bucket != "media" || *fake.input.ContentType != "image/jpeg" || !bytes.Equal(fake.body, []byte("data")) {
		t.Fatalf("unexpected put input %+v", fake.input)
	}
}

func TestS3StoreUploadError(t *testing.T) {
	boom := errors.New("denied")
	store := newS3StoreWithClient(&fakeS3{err: boom}, "media", "https://cdn.example.com")
	if _, err := store.Upload(context.Background(), nil, "k", "image/jpeg"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(context.Background(), Config{Type: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
