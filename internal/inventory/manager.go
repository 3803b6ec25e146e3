package inventory

import (
	"context"
	"time"

	"github.com/creasion/crm/internal/expiry"
	"github.com/creasion/crm/internal/model"
	"github.com/creasion/crm/internal/syncer"
)

// Manager runs inventory operations through the sync controller, so
// every mutation hits the mirror and the remote store the same way.
type Manager struct {
	sync *syncer.Controller
	now  func() time.Time
}

// NewManager constructs a manager over a loaded controller.
func NewManager(c *syncer.Controller) *Manager {
	return &Manager{sync: c, now: time.Now}
}

// SaveService upserts a service and returns its id.
func (m *Manager) SaveService(ctx context.Context, in ServiceInput) (string, error) {
	var id string
	err := m.sync.Mutate(ctx, func(d *model.AppData) error {
		var err error
		id, err = ApplyService(d, in, m.now())
		return err
	})
	return id, err
}

// DeleteService removes a service and its add-ons.
func (m *Manager) DeleteService(ctx context.Context, id string) error {
	return m.sync.Mutate(ctx, func(d *model.AppData) error {
		return RemoveService(d, id)
	})
}

// SaveHostingPlan upserts a hosting plan and returns its id.
func (m *Manager) SaveHostingPlan(ctx context.Context, in PlanInput) (string, error) {
	var id string
	err := m.sync.Mutate(ctx, func(d *model.AppData) error {
		var err error
		id, err = ApplyHostingPlan(d, in, m.now())
		return err
	})
	return id, err
}

// DeleteHostingPlan removes a hosting plan.
func (m *Manager) DeleteHostingPlan(ctx context.Context, id string) error {
	return m.sync.Mutate(ctx, func(d *model.AppData) error {
		return RemoveHostingPlan(d, id)
	})
}

// SaveCredential upserts a stored login and returns its id.
func (m *Manager) SaveCredential(ctx context.Context, in CredentialInput) (string, error) {
	var id string
	err := m.sync.Mutate(ctx, func(d *model.AppData) error {
		var err error
		id, err = ApplyCredential(d, in)
		return err
	})
	return id, err
}

// DeleteCredential removes a stored login.
func (m *Manager) DeleteCredential(ctx context.Context, id string) error {
	return m.sync.Mutate(ctx, func(d *model.AppData) error {
		return RemoveCredential(d, id)
	})
}

// Data returns a copy of the working document.
func (m *Manager) Data() *model.AppData { return m.sync.Current() }

// Alerts returns the expiry alert list for the working document.
func (m *Manager) Alerts() []expiry.Alert {
	return expiry.Alerts(m.sync.Current())
}

// Find returns the services matching the query.
func (m *Manager) Find(query string) []model.Service {
	return Search(m.sync.Current(), query)
}
