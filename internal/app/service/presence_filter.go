package service

import (
	"sync"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/bits-and-blooms/bloom/v3"
)

const (
	defaultExpectedKeys      = 100_000
	defaultFalsePositiveRate = 0.01
)

// PresenceFilter answers "definitely absent" questions about beetl
// natural keys without a store round trip. It is seeded from the store
// at startup and extended on every create. Deletes are not removable
// from a bloom filter; a stale positive simply falls through to the
// store, which reports the absence.
type PresenceFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewPresenceFilter builds a filter sized for the expected number of
// beetls. Zero values fall back to sensible defaults.
func NewPresenceFilter(expectedKeys uint, falsePositiveRate float64) *PresenceFilter {
	if expectedKeys == 0 {
		expectedKeys = defaultExpectedKeys
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = defaultFalsePositiveRate
	}
	return &PresenceFilter{
		filter: bloom.NewWithEstimates(expectedKeys, falsePositiveRate),
	}
}

// Seed loads an existing key set, typically read from the store at
// startup.
func (f *PresenceFilter) Seed(keys []model.BeetlKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		f.filter.Add(encodeKey(key.Obfuscation, key.Slug))
	}
}

// Add records a freshly created natural key.
func (f *PresenceFilter) Add(obfuscation, slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Add(encodeKey(obfuscation, slug))
}

// MayExist reports whether the key could be present. False means the
// key was never created; true means "ask the store".
func (f *PresenceFilter) MayExist(obfuscation, slug string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test(encodeKey(obfuscation, slug))
}

func encodeKey(obfuscation, slug string) []byte {
	key := make([]byte, 0, len(obfuscation)+len(slug)+1)
	key = append(key, obfuscation...)
	key = append(key, '/')
	key = append(key, slug...)
	return key
}
