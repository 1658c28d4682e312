package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"propscrape/httputil"
	"propscrape/models"
)

func TestProcessDownloadsAndHashes(t *testing.T) {
	body := []byte("fake-image-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body)
	}))
	defer srv.Close()

	w := NewMediaWorker(nil, httputil.NewClients(), NewNoOpUploader())

	img := &models.ListingImage{ID: 7, ImageURL: srv.URL + "/photo1.jpg"}
	result := w.Process(context.Background(), img)

	if result.Error != nil {
		t.Fatalf("process failed: %v", result.Error)
	}
	if result.ImageID != 7 {
		t.Errorf("image id = %d; want 7", result.ImageID)
	}
	if result.Size != int64(len(body)) {
		t.Errorf("size = %d; want %d", result.Size, len(body))
	}

	sum := sha256.Sum256(body)
	wantHash := hex.EncodeToString(sum[:])
	if result.ContentHash != wantHash {
		t.Errorf("hash = %s; want %s", result.ContentHash, wantHash)
	}
	wantKey := "images/" + wantHash[:2] + "/" + wantHash + ".jpg"
	if result.S3Key != wantKey {
		t.Errorf("s3 key = %s; want %s", result.S3Key, wantKey)
	}
}

func TestProcessReportsDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	w := NewMediaWorker(nil, httputil.NewClients(), NewNoOpUploader())

	result := w.Process(context.Background(), &models.ListingImage{ImageURL: srv.URL + "/gone.jpg"})
	if result.Error == nil {
		t.Fatal("expected an error for a 404 download")
	}
}

func TestGuessExtension(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://media.example.com/a/photo1.jpg", "", ".jpg"},
		{"https://media.example.com/a/photo1.PNG", "", ".png"},
		{"https://media.example.com/a/photo1", "image/webp", ".webp"},
		{"https://media.example.com/a/photo1.ashx", "image/png", ".png"},
		{"https://media.example.com/a/photo1", "", ".jpg"},
	}

	for _, tt := range tests {
		if got := guessExtension(tt.url, tt.contentType); got != tt.want {
			t.Errorf("guessExtension(%q, %q) = %q; want %q", tt.url, tt.contentType, got, tt.want)
		}
	}
}
