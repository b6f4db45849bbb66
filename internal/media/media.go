// Package media handles blob uploads for photo and voice messages and
// the single-capture voice recording gate.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRecordingInProgress is returned when a capture is already running.
var ErrRecordingInProgress = errors.New("recording already in progress")

// ErrUploadInProgress is returned when an upload is already running.
var ErrUploadInProgress = errors.New("upload already in progress")

// Store is the blob surface of the platform.
type Store interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
}

// Uploader pushes media blobs to the bucket and returns the content
// variant referencing the public URL. One upload at a time.
type Uploader struct {
	store  Store
	bucket string
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewUploader creates an uploader bound to one bucket.
func NewUploader(store Store, bucket string, b *bus.Bus, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{store: store, bucket: bucket, bus: b, logger: logger}
}

// Uploading reports whether an upload is in flight.
func (u *Uploader) Uploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight
}

// UploadImage stores a photo blob and returns the image content.
func (u *Uploader) UploadImage(ctx context.Context, data []byte, contentType string) (content.Content, error) {
	url, err := u.upload(ctx, "images", data, contentType, extensionFor(contentType, "png"))
	if err != nil {
		return content.Content{}, err
	}
	return content.Image(url), nil
}

// UploadAudio stores a voice capture and returns the audio content.
func (u *Uploader) UploadAudio(ctx context.Context, data []byte, contentType string) (content.Content, error) {
	url, err := u.upload(ctx, "audio", data, contentType, extensionFor(contentType, "webm"))
	if err != nil {
		return content.Content{}, err
	}
	return content.Audio(url), nil
}

func (u *Uploader) upload(ctx context.Context, prefix string, data []byte, contentType, ext string) (string, error) {
	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return "", ErrUploadInProgress
	}
	u.inFlight = true
	u.mu.Unlock()

	u.setUploading(true)
	defer func() {
		u.mu.Lock()
		u.inFlight = false
		u.mu.Unlock()
		u.setUploading(false)
	}()

	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)
	if err := u.store.Upload(ctx, u.bucket, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	return u.store.PublicURL(u.bucket, key), nil
}

func (u *Uploader) setUploading(active bool) {
	if u.bus != nil {
		u.bus.Emit(bus.KindMediaUploading, active)
	}
}

func extensionFor(contentType, fallback string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "audio/webm":
		return "webm"
	case "audio/wav":
		return "wav"
	case "audio/ogg":
		return "ogg"
	case "audio/mpeg":
		return "mp3"
	default:
		return fallback
	}
}

// Capture is one running voice recording.
type Capture interface {
	// Stop ends the capture and returns the recorded bytes with their
	// content type.
	Stop() (data []byte, contentType string, err error)
}

// CaptureFunc starts a device capture.
type CaptureFunc func(ctx context.Context) (Capture, error)

// RecordingManager allows at most one voice capture at a time and
// guarantees the device is released on every path.
type RecordingManager struct {
	start  CaptureFunc
	logger *zap.Logger

	mu      sync.Mutex
	current Capture
}

// NewRecordingManager creates an idle manager.
func NewRecordingManager(start CaptureFunc, logger *zap.Logger) *RecordingManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingManager{start: start, logger: logger}
}

// Recording reports whether a capture is running.
func (m *RecordingManager) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Begin starts a capture. A second Begin while one is running returns
// ErrRecordingInProgress.
func (m *RecordingManager) Begin(ctx context.Context) error {
	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return ErrRecordingInProgress
	}
	m.mu.Unlock()

	rec, err := m.start(ctx)
	if err != nil {
		return fmt.Errorf("begin recording: %w", err)
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		// Lost the race to another Begin; release this capture.
		_, _, _ = rec.Stop()
		return ErrRecordingInProgress
	}
	m.current = rec
	m.mu.Unlock()
	return nil
}

// End stops the running capture and returns its bytes. The capture slot
// is released even when Stop fails.
func (m *RecordingManager) End() ([]byte, string, error) {
	m.mu.Lock()
	rec := m.current
	m.current = nil
	m.mu.Unlock()

	if rec == nil {
		return nil, "", errors.New("no recording in progress")
	}
	data, contentType, err := rec.Stop()
	if err != nil {
		return nil, "", fmt.Errorf("end recording: %w", err)
	}
	return data, contentType, nil
}

// Abort stops and discards a running capture, if any.
func (m *RecordingManager) Abort() {
	m.mu.Lock()
	rec := m.current
	m.current = nil
	m.mu.Unlock()

	if rec != nil {
		if _, _, err := rec.Stop(); err != nil {
			m.logger.Debug("capture release failed", zap.Error(err))
		}
	}
}
