package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"propscrape/httputil"
	"propscrape/logging"
	"propscrape/models"
	"propscrape/storage"
)

const maxMirrorAttempts = 3

// MediaWorker mirrors listing images: it downloads each pending image,
// hashes the bytes, and uploads them to S3-compatible storage so the
// record outlives the source site's CDN.
type MediaWorker struct {
	store      *storage.PostgresStore
	httpClient *http.Client
	uploader   S3Uploader
}

// S3Uploader is the slice of storage.S3Uploader the worker needs.
type S3Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

func NewMediaWorker(store *storage.PostgresStore, clients *httputil.Clients, uploader S3Uploader) *MediaWorker {
	return &MediaWorker{
		store:      store,
		httpClient: clients.Media,
		uploader:   uploader,
	}
}

// MirrorResult contains the outcome of mirroring one image.
type MirrorResult struct {
	ImageID     int64
	S3Key       string
	ContentHash string
	Size        int64
	Error       error
}

// Process downloads one image, computes its hash, and uploads it.
func (w *MediaWorker) Process(ctx context.Context, img *models.ListingImage) MirrorResult {
	result := MirrorResult{ImageID: img.ID}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.ImageURL, nil)
	if err != nil {
		result.Error = fmt.Errorf("create request: %w", err)
		return result
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("download: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("download status: %d", resp.StatusCode)
		return result
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 50*1024*1024))
	if err != nil {
		result.Error = fmt.Errorf("read body: %w", err)
		return result
	}

	result.Size = int64(len(data))

	hash := sha256.Sum256(data)
	result.ContentHash = hex.EncodeToString(hash[:])

	// Content-addressed key, so re-mirroring the same bytes is a no-op
	// at the bucket level.
	ext := guessExtension(img.ImageURL, resp.Header.Get("Content-Type"))
	result.S3Key = fmt.Sprintf("images/%s/%s%s", result.ContentHash[:2], result.ContentHash, ext)

	if w.uploader != nil {
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		if err := w.uploader.Upload(ctx, result.S3Key, bytes.NewReader(data), contentType); err != nil {
			result.Error = fmt.Errorf("upload: %w", err)
			return result
		}
	}

	return result
}

// guessExtension determines file extension from URL or content-type.
func guessExtension(url, contentType string) string {
	ext := strings.ToLower(path.Ext(url))
	if ext != "" && isImageExt(ext) {
		return ext
	}

	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff":
		return true
	}
	return false
}

// Run starts the mirror loop.
func (w *MediaWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Media worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *MediaWorker) processBatch(ctx context.Context, batchSize int) {
	images, err := w.store.GetPendingImages(ctx, batchSize)
	if err != nil {
		log.Printf("Media worker: query error: %v", err)
		return
	}

	if len(images) == 0 {
		return
	}

	logging.Debugf("Media worker: processing %d images", len(images))

	var processed, failed int
	for i := range images {
		img := &images[i]

		result := w.Process(ctx, img)

		if result.Error != nil {
			log.Printf("Media worker: failed %s: %v", img.ImageURL, result.Error)
			failed++

			newAttempts := img.MirrorAttempts + 1
			status := models.MirrorStatusPending
			if newAttempts >= maxMirrorAttempts {
				status = models.MirrorStatusFailed
			}
			if err := w.store.UpdateImageMirrorStatus(ctx, img.ID, status, nil, nil, newAttempts); err != nil {
				log.Printf("Media worker: failed to record attempt for %d: %v", img.ID, err)
			}
			continue
		}

		if err := w.store.UpdateImageMirrorStatus(ctx, img.ID, models.MirrorStatusUploaded, &result.S3Key, &result.ContentHash, img.MirrorAttempts); err != nil {
			log.Printf("Media worker: failed to update %d: %v", img.ID, err)
			failed++
			continue
		}

		processed++
		logging.Debugf("Media worker: uploaded %s -> %s (%d bytes)", img.ImageURL, result.S3Key, result.Size)

		time.Sleep(200 * time.Millisecond)
	}

	if processed > 0 || failed > 0 {
		log.Printf("Media worker: processed %d, failed %d", processed, failed)
	}
}

// NoOpUploader skips the actual upload; useful when S3 is not configured.
type NoOpUploader struct{}

func (u *NoOpUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	io.Copy(io.Discard, data)
	return nil
}

func NewNoOpUploader() *NoOpUploader {
	return &NoOpUploader{}
}
