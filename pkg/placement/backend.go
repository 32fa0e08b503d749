package placement

import "context"

// Backend persists the snapshot document. Implementations must be safe for
// use from the cache's flush path; the cache itself serializes calls.
type Backend interface {
	// Load returns the persisted document, or (nil, nil) when none exists.
	Load(ctx context.Context) (*Document, error)

	// Store writes the document, replacing any previous snapshot. The write
	// must be atomic: a crash mid-write never corrupts the previous state.
	Store(ctx context.Context, doc *Document) error

	// Reset removes the persisted snapshot entirely.
	Reset(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// NullBackend discards all writes. Used when persistence is disabled.
type NullBackend struct{}

// NewNullBackend creates a backend that stores nothing.
func NewNullBackend() *NullBackend { return &NullBackend{} }

func (*NullBackend) Load(context.Context) (*Document, error)    { return nil, nil }
func (*NullBackend) Store(context.Context, *Document) error     { return nil }
func (*NullBackend) Reset(context.Context) error                { return nil }
func (*NullBackend) Close() error                               { return nil }

var _ Backend = (*NullBackend)(nil)
