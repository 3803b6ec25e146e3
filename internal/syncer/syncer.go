// Package syncer owns the in-memory CRM document and keeps it
// reconciled with the local mirror and the remote store. Reads are
// served from memory; every mutation is mirrored synchronously and
// pushed to the remote store in the background.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/mirror"
	"github.com/creasion/crm/internal/model"
	"github.com/creasion/crm/internal/repository"
)

// Status describes the controller's connection to the remote store.
type Status string

const (
	// StatusConnected means the last remote operation succeeded.
	StatusConnected Status = "connected"
	// StatusOffline means no remote store is configured; the document
	// lives only in the local mirror.
	StatusOffline Status = "offline"
	// StatusError means the last remote operation failed; local state
	// keeps working and the next push retries.
	StatusError Status = "error"
)

// State is a snapshot of the controller's sync condition.
type State struct {
	Status Status
	// SetupRequired is set when the remote store reports a missing
	// table or column, meaning the operator has not run the setup
	// script against the database.
	SetupRequired bool
	// Syncing is true while a background push is in flight.
	Syncing bool
}

const pushTimeout = 15 * time.Second

// Controller mediates between the in-memory document, the mirror and
// the remote store. A nil store puts the controller in offline mode.
type Controller struct {
	store  repository.StateRepository
	mir    mirror.Mirror
	userID uuid.UUID
	log    *zap.Logger

	mu      sync.Mutex
	current *model.AppData
	state   State

	wg sync.WaitGroup
}

// New constructs a controller. store may be nil for local-only use.
func New(store repository.StateRepository, mir mirror.Mirror, userID uuid.UUID, log *zap.Logger) *Controller {
	return &Controller{store: store, mir: mir, userID: userID, log: log}
}

// Load establishes the working document: the remote copy when
// reachable, otherwise the mirrored one, otherwise a fresh default.
// The adopted document is always written back to the mirror.
func (c *Controller) Load(ctx context.Context) (*model.AppData, error) {
	local := c.localFallback(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		c.current = local
		c.state = State{Status: StatusOffline}
		return c.current.Clone(), nil
	}

	data, err := c.store.Load(ctx, c.userID)
	switch {
	case err == nil:
		c.current = data
		c.state = State{Status: StatusConnected}
		if merr := c.mir.Put(ctx, data); merr != nil {
			c.log.Warn("mirror write failed", zap.Error(merr))
		}

	case errors.Is(err, errs.ErrNotFound):
		// first run against an empty store: seed it with what we have
		c.current = local
		c.state = State{Status: StatusConnected}
		c.pushLocked()

	case errors.Is(err, errs.ErrSchemaMissing):
		c.log.Warn("remote schema missing, run setup", zap.Error(err))
		c.current = local
		c.state = State{Status: StatusError, SetupRequired: true}

	default:
		c.log.Warn("remote load failed, using local copy", zap.Error(err))
		c.current = local
		c.state = State{Status: StatusError}
	}

	return c.current.Clone(), nil
}

// Mutate applies fn to a copy of the document and commits the result:
// the mirror is written before Mutate returns, the remote push runs in
// the background. The document fn receives is private to the call.
func (c *Controller) Mutate(ctx context.Context, fn func(*model.AppData) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return errors.New("document not loaded")
	}
	next := c.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	c.current = next

	if err := c.mir.Put(ctx, next); err != nil {
		c.log.Warn("mirror write failed", zap.Error(err))
	}
	if c.store != nil {
		c.pushLocked()
	}
	return nil
}

// Current returns a copy of the working document.
func (c *Controller) Current() *model.AppData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// State returns the current sync condition.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until all in-flight pushes have finished.
func (c *Controller) Wait() { c.wg.Wait() }

// pushLocked starts a background save of the current document. Callers
// hold c.mu. Concurrent pushes may finish out of order; the store row
// then holds the last completed push, and the next mutation converges
// it back to the in-memory document.
func (c *Controller) pushLocked() {
	doc := c.current.Clone()
	c.state.Syncing = true
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		err := c.store.Save(ctx, c.userID, doc)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.Syncing = false
		switch {
		case err == nil:
			c.state.Status = StatusConnected
			c.state.SetupRequired = false
		case errors.Is(err, errs.ErrSchemaMissing):
			c.log.Warn("push failed: schema missing", zap.Error(err))
			c.state.Status = StatusError
			c.state.SetupRequired = true
		default:
			c.log.Warn("push failed", zap.Error(err))
			c.state.Status = StatusError
		}
	}()
}

// localFallback returns the mirrored document or a fresh default.
func (c *Controller) localFallback(ctx context.Context) *model.AppData {
	data, err := c.mir.Get(ctx)
	if err == nil {
		return data
	}
	if !errors.Is(err, errs.ErrNotFound) {
		c.log.Warn("mirror read failed", zap.Error(err))
	}
	return model.Default(time.Now())
}
