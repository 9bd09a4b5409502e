package audio

import (
	"sync"

	"github.com/google/uuid"
)

const blobPrefix = "blob:"

type blob struct {
	data     []byte
	mimeType string
}

// BlobStore keeps recorded audio in memory for the lifetime of the process.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string]blob{}}
}

// Put stores a copy of data and returns its reference.
func (s *BlobStore) Put(data []byte, mimeType string) string {
	ref := blobPrefix + uuid.NewString()
	b := blob{data: append([]byte(nil), data...), mimeType: mimeType}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = b
	return ref
}

func (s *BlobStore) Get(ref string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	if !ok {
		return nil, "", false
	}
	return b.data, b.mimeType, true
}

func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
