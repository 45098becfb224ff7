// Package catalog records completed conversions by the digest of their
// input so identical STL files are converted once.
package catalog

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

var (
	// ErrNotFound is returned by Lookup when no entry exists for a digest.
	ErrNotFound = errors.New("catalog: entry not found")
	// ErrExists is returned by Record when an entry for the digest has
	// already been recorded.
	ErrExists = errors.New("catalog: entry already exists")
)

// Entry describes one conversion.
type Entry struct {
	Digest    string     `json:"digest" yaml:"digest"`
	Source    string     `json:"source" yaml:"source"`
	Output    string     `json:"output" yaml:"output"`
	Triangles uint64     `json:"triangles" yaml:"triangles"`
	Vertices  uint64     `json:"vertices" yaml:"vertices"`
	Lower     [3]float32 `json:"lower" yaml:"lower"`
	Upper     [3]float32 `json:"upper" yaml:"upper"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// Catalog stores conversion entries keyed by digest.
type Catalog interface {
	// Lookup returns the entry for digest or ErrNotFound.
	Lookup(ctx context.Context, digest string) (*Entry, error)
	// Record stores e. The first entry recorded for a digest wins; later
	// calls return ErrExists.
	Record(ctx context.Context, e Entry) error
}

// Digest returns the hex encoded BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MemoryCatalog is an in-process Catalog.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCatalog returns an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]Entry)}
}

// Lookup implements Catalog.
func (c *MemoryCatalog) Lookup(ctx context.Context, digest string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[digest]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// Record implements Catalog.
func (c *MemoryCatalog) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[e.Digest]; ok {
		return ErrExists
	}
	c.entries[e.Digest] = e
	return nil
}

// Len returns the number of recorded entries.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
