// AngelaMos | 2026
// fakes.go

package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/vidtube/go-backend/internal/media"
)

var ErrUploadRejected = errors.New("upload rejected")

// FakeUploader records uploads and fails those FailOn matches. It satisfies
// media.Uploader, so wrapping it in media.Service keeps temp file removal in
// play.
type FakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	FailOn   func(localPath string) bool
}

func (f *FakeUploader) Upload(_ context.Context, localPath string) (*media.Asset, error) {
	if f.FailOn != nil && f.FailOn(localPath) {
		return nil, ErrUploadRejected
	}

	name := filepath.Base(localPath)

	f.mu.Lock()
	f.uploaded = append(f.uploaded, localPath)
	f.mu.Unlock()

	return &media.Asset{
		URL:      "https://media.test/" + name,
		PublicID: name,
	}, nil
}

func (f *FakeUploader) Uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

// MemoryDenylist is an in-process access token denylist.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tokenID] = expiresAt
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiresAt, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}
