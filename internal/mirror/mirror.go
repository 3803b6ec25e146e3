// Package mirror keeps a local copy of the CRM document so the
// application can start and mutate state without a reachable remote
// store.
package mirror

import (
	"context"

	"github.com/creasion/crm/internal/model"
)

// Mirror persists the latest known document on the local machine.
type Mirror interface {
	// Put replaces the mirrored document.
	Put(ctx context.Context, data *model.AppData) error
	// Get returns the mirrored document, or errs.ErrNotFound when
	// nothing has been mirrored yet.
	Get(ctx context.Context) (*model.AppData, error)
	// Close releases the underlying storage.
	Close() error
}
