// Package storage records which headlines were already announced so repeated
// refreshes of the same feed do not notify subscribers twice. It never holds
// feed or article content.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks announced headline ids.
type Store interface {
	Close() error
	SeenHeadline(id string) (bool, error)
	MarkHeadline(id string) error
}

// Supported backends.
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
)

// Options controls retention for concrete store implementations.
type Options struct {
	HeadlineTTL     time.Duration
	CleanupInterval time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

const (
	defaultHeadlineTTL     = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Persistent reports whether typ remembers announced headlines across
// refreshes. The none backend forgets everything.
func Persistent(typ string) bool {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", TypeNone, "disabled":
		return false
	default:
		return true
	}
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.HeadlineTTL <= 0 {
		opts.HeadlineTTL = defaultHeadlineTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// noopStore never remembers anything, so every headline is announced on every refresh.
type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) SeenHeadline(string) (bool, error) { return false, nil }
func (noopStore) MarkHeadline(string) error         { return nil }
