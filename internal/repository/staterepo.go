// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/creasion/crm/internal/model"
	"github.com/gofrs/uuid/v5"
)

// StateRepository stores one AppData document per user, replaced
// wholesale on every save.
type StateRepository interface {
	// Load fetches the document for a user. Returns errs.ErrNotFound when
	// no row exists yet and errs.ErrSchemaMissing when the store lacks the
	// expected table or column.
	Load(ctx context.Context, userID uuid.UUID) (*model.AppData, error)

	// Save upserts the whole document for a user in one atomic operation
	// keyed on user id, stamping the updated-at time. Failure
	// classification matches Load.
	Save(ctx context.Context, userID uuid.UUID, data *model.AppData) error
}
