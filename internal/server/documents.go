package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/editor"
	"github.com/syssam/schemaflow/graph"
)

// Documents keeps one controller per open document and persists the
// source and node positions to a store after every change.
type Documents struct {
	store  schemaflow.Store
	logger *zap.Logger
	opts   []editor.Option

	mu   sync.Mutex
	open map[string]*document
}

type document struct {
	ctrl *editor.Controller

	mu    sync.Mutex
	saved uint64
}

// NewDocuments returns a registry over st. opts are passed to every
// controller it creates.
func NewDocuments(st schemaflow.Store, logger *zap.Logger, opts ...editor.Option) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{
		store:  st,
		logger: logger,
		opts:   opts,
		open:   make(map[string]*document),
	}
}

// Create starts a document from src, or from the default template when
// src is empty, and stores it under a new id.
func (d *Documents) Create(ctx context.Context, src string) (string, error) {
	opts := d.options()
	if src != "" {
		opts = append(opts, editor.WithSource(src))
	}
	ctrl, err := editor.New(opts...)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	doc := d.register(id, ctrl)
	if err := d.save(ctx, id, doc); err != nil {
		d.forget(id)
		return "", err
	}
	d.logger.Info("document created", zap.String("id", id))
	return id, nil
}

// Attach registers an existing controller under id, replacing any open
// document with that id.
func (d *Documents) Attach(ctx context.Context, id string, ctrl *editor.Controller) error {
	return d.save(ctx, id, d.register(id, ctrl))
}

// Open returns the controller of the document, restoring it from the
// store when it is not open.
func (d *Documents) Open(ctx context.Context, id string) (*editor.Controller, error) {
	doc, err := d.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.ctrl, nil
}

// Update runs fn on the document controller and persists the result.
// A self-caused source change is not an error.
func (d *Documents) Update(ctx context.Context, id string, fn func(*editor.Controller) error) (editor.Snapshot, error) {
	doc, err := d.get(ctx, id)
	if err != nil {
		return editor.Snapshot{}, err
	}
	if err := fn(doc.ctrl); err != nil && !errors.Is(err, schemaflow.ErrSelfCaused) {
		return doc.ctrl.Snapshot(), err
	}
	if err := d.save(ctx, id, doc); err != nil {
		return editor.Snapshot{}, err
	}
	return doc.ctrl.Snapshot(), nil
}

// Delete closes and removes the document.
func (d *Documents) Delete(ctx context.Context, id string) error {
	d.forget(id)
	return d.store.Delete(ctx, id)
}

// List returns the ids of the stored documents.
func (d *Documents) List(ctx context.Context) ([]string, error) {
	return d.store.List(ctx)
}

func (d *Documents) get(ctx context.Context, id string) (*document, error) {
	d.mu.Lock()
	doc, ok := d.open[id]
	d.mu.Unlock()
	if ok {
		return doc, nil
	}
	stored, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := append(d.options(), editor.WithSource(stored.Source), editor.WithPositions(stored.Positions))
	ctrl, err := editor.New(opts...)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// Another request may have restored it meanwhile.
	if doc, ok := d.open[id]; ok {
		return doc, nil
	}
	doc = &document{ctrl: ctrl, saved: ctrl.Snapshot().Version}
	d.open[id] = doc
	d.logger.Debug("document restored", zap.String("id", id))
	return doc, nil
}

func (d *Documents) register(id string, ctrl *editor.Controller) *document {
	doc := &document{ctrl: ctrl}
	d.mu.Lock()
	d.open[id] = doc
	d.mu.Unlock()
	return doc
}

func (d *Documents) forget(id string) {
	d.mu.Lock()
	delete(d.open, id)
	d.mu.Unlock()
}

// save writes the current snapshot unless a newer one was already saved.
func (d *Documents) save(ctx context.Context, id string, doc *document) error {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	snap := doc.ctrl.Snapshot()
	if snap.Version <= doc.saved {
		return nil
	}
	err := d.store.Put(ctx, &schemaflow.Document{
		ID:        id,
		Source:    snap.Source,
		Positions: graph.Positions(snap.Nodes),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		d.logger.Error("document not saved", zap.String("id", id), zap.Error(err))
		return err
	}
	doc.saved = snap.Version
	return nil
}

func (d *Documents) options() []editor.Option {
	return append([]editor.Option{editor.WithLogger(d.logger)}, d.opts...)
}
