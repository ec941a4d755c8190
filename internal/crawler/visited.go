package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// VisitedSet tracks URLs already visited or scheduled. Keys are exact
// URL strings: a fragment variant and its base URL are separate
// entries, which is what lets anchor sections of an already-snapshotted
// page still be visited.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]bool)}
}

// Seen reports whether rawURL has been marked.
func (v *VisitedSet) Seen(rawURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen[rawURL]
}

// Mark records rawURL. Marking an already-marked URL is a no-op.
func (v *VisitedSet) Mark(rawURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen[rawURL] = true
}

// Len returns the number of marked URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

// Fingerprints deduplicates snapshots by content hash. Two URLs
// rendering identical markup produce one stored file.
type Fingerprints struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewFingerprints creates an empty fingerprint index.
func NewFingerprints() *Fingerprints {
	return &Fingerprints{seen: make(map[string]bool)}
}

// Seen hashes content and reports whether identical content was
// recorded before. New content is recorded as a side effect. The
// digest is returned for logging.
func (f *Fingerprints) Seen(content string) (string, bool) {
	sum := sha256.Sum256([]byte(content))
	digest := hex.EncodeToString(sum[:])

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[digest] {
		return digest, true
	}
	f.seen[digest] = true
	return digest, false
}
