package lattice

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when no node exists for an id.
var ErrNotFound = errors.New("lattice: node not found")

// ContentNode is the read-only record a Store returns for one content item.
type ContentNode struct {
	// ID is the stable identifier the host uses for this item.
	ID string
	// Alias is an explicit display name (tag), preferred over Body when set.
	Alias string
	// Body is the item's text; the first non-empty line (markdown stripped)
	// becomes the display title when Alias is empty.
	Body string
	// Children are the ordered ids of the item's hierarchical children.
	Children []string
	// ForwardRefs are ids this item references.
	ForwardRefs []string
	// BackRefs are ids of items referencing this one.
	BackRefs []string
}

// Store is the host-supplied lookup interface for content items.
// Every call is fallible; implementations may be backed by anything from an
// in-memory map to a remote database.
type Store interface {
	Node(ctx context.Context, id string) (ContentNode, error)
}

// LoadError reports that the root of a build could not be fetched.
// Non-root fetch failures are pruned silently and never produce a LoadError.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("lattice: load %q failed: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MapStore is an in-memory Store keyed by node id. Useful for tests and demos.
type MapStore map[string]ContentNode

// Node implements Store.
func (m MapStore) Node(ctx context.Context, id string) (ContentNode, error) {
	if err := ctx.Err(); err != nil {
		return ContentNode{}, err
	}
	n, ok := m[id]
	if !ok {
		return ContentNode{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return n, nil
}
