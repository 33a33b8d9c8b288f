package testutil

import (
	"context"
	"sync"
	"time"

	"civicsync/services"
)

var (
	_ services.BlobStore    = (*MemBlobs)(nil)
	_ services.TokenRevoker = (*MemRevoker)(nil)
)

// MemBlobs records stored blobs by path.
type MemBlobs struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Types    map[string]string
	FailWith error
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (b *MemBlobs) Store(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return "", b.FailWith
	}
	b.Objects[path] = data
	b.Types[path] = contentType
	return path, nil
}

func (b *MemBlobs) PublicURL(handle string) string {
	return "https://blobs.test/" + handle
}

// MemRevoker is a token denylist that ignores expiry.
type MemRevoker struct {
	mu      sync.Mutex
	Revoked map[string]time.Duration
}

func NewMemRevoker() *MemRevoker {
	return &MemRevoker{Revoked: map[string]time.Duration{}}
}

func (r *MemRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Revoked[tokenID] = ttl
	return nil
}

func (r *MemRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Revoked[tokenID]
	return ok, nil
}

// PNG is the smallest byte sequence content sniffing recognises as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
