package schemaflow

import (
	"context"
	"time"

	"github.com/syssam/schemaflow/graph"
)

// Store is the interface for persisting editor documents.
// Implementations live in internal/store (file backed and in-memory).
type Store interface {
	// Get retrieves a document by id.
	// Returns a NotFoundError if the document doesn't exist.
	Get(ctx context.Context, id string) (*Document, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored documents, sorted.
	List(ctx context.Context) ([]string, error)
}

// Document is the persisted state of one editing session: the source text
// and the manually placed node positions, keyed by node id.
type Document struct {
	ID        string                    `json:"id" msgpack:"id"`
	Source    string                    `json:"source" msgpack:"source"`
	Positions map[string]graph.Position `json:"positions,omitempty" msgpack:"positions,omitempty"`
	UpdatedAt time.Time                 `json:"updated_at" msgpack:"updated_at"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.Positions != nil {
		c.Positions = make(map[string]graph.Position, len(d.Positions))
		for k, v := range d.Positions {
			c.Positions[k] = v
		}
	}
	return &c
}
