package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

// StateRepo implements StateRepository over the crm_state table:
// one jsonb document per user, replaced wholesale on save.
type StateRepo struct{ db *DB }

// NewStateRepo constructs a state repository.
func NewStateRepo(db *DB) *StateRepo { return &StateRepo{db: db} }

// Load fetches the single document row for a user.
func (r *StateRepo) Load(ctx context.Context, userID uuid.UUID) (*model.AppData, error) {
	const q = `SELECT content FROM crm_state WHERE user_id=$1`
	var raw []byte
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		if isSchemaMissing(err) {
			return nil, fmt.Errorf("crm_state load: %w: %v", errs.ErrSchemaMissing, err)
		}
		return nil, err
	}
	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("crm_state content: %w", err)
	}
	return &data, nil
}

// Save upserts the whole document keyed on user id and stamps updated_at.
func (r *StateRepo) Save(ctx context.Context, userID uuid.UUID, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("crm_state marshal: %w", err)
	}
	const q = `
INSERT INTO crm_state (user_id, content, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET content=EXCLUDED.content, updated_at=now()`
	if _, err := r.db.Pool.Exec(ctx, q, userID, raw); err != nil {
		if isSchemaMissing(err) {
			return fmt.Errorf("crm_state save: %w: %v", errs.ErrSchemaMissing, err)
		}
		return err
	}
	return nil
}
