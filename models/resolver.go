// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"golang.org/x/sync/singleflight"
)

const loadKey = "models"

// State is the load state of a Resolver.
type State uint8

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Resolver answers questions about the model graph of a twin instance.
type Resolver struct {
	client twins.Client
	group  singleflight.Group

	mu         sync.RWMutex
	state      State
	generation uint64
	graph      *modelGraph
}

// New returns an unloaded Resolver backed by client.
func New(client twins.Client) *Resolver {
	return &Resolver{client: client}
}

// State returns the current load state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.state
}

// Initialize loads every model of the instance. Concurrent callers share a
// single load and a loaded Resolver returns immediately.
func (r *Resolver) Initialize(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.state == Loaded {
			r.mu.Unlock()
			return nil
		}
		r.state = Loading
		gen := r.generation
		r.mu.Unlock()

		_, err, _ := r.group.Do(loadKey, func() (any, error) {
			g, err := r.fetch(ctx)

			r.mu.Lock()
			defer r.mu.Unlock()
			if r.generation != gen {
				return nil, nil
			}
			if err != nil {
				r.state = Unloaded
				return nil, err
			}
			r.graph = g
			r.state = Loaded
			return nil, nil
		})
		if err != nil {
			return err
		}
		// An invalidation raced the load; load again.
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *Resolver) fetch(ctx context.Context) (*modelGraph, error) {
	data, err := r.client.Models(ctx, true)
	if err != nil {
		return nil, err
	}

	g := newModelGraph()
	for _, md := range data {
		if len(md.Model) > 0 {
			if err := g.add(md.Model); err != nil {
				return nil, err
			}
			continue
		}
		n := g.stub(md.ID)
		n.displayName = pickLanguage(md.DisplayName)
		n.description = pickLanguage(md.Description)
	}
	g.link()

	return g, nil
}

// InitializeWithModels replaces the graph with one built from docs. Models
// that reference each other through extends or components are rejected.
func (r *Resolver) InitializeWithModels(docs []json.RawMessage) error {
	g := newModelGraph()
	for _, doc := range docs {
		if err := g.add(doc); err != nil {
			return err
		}
	}
	g.link()
	if cycles := g.cycles(); len(cycles) > 0 {
		return errors.Wrap(ErrCycle, fmt.Errorf("%v", cycles))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.graph = g
	r.state = Loaded

	return nil
}

// Invalidate drops the loaded graph. An in-flight load is discarded.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.graph = nil
	r.state = Unloaded
}

func (r *Resolver) loaded() (*modelGraph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state != Loaded || r.graph == nil {
		return nil, ErrNotLoaded
	}

	return r.graph, nil
}

// Model returns the flattened model with the given id.
func (r *Resolver) Model(id string) (Model, error) {
	g, err := r.loaded()
	if err != nil {
		return Model{}, err
	}

	return g.flatten(id)
}

// Models returns all known models, referenced stubs included.
func (r *Resolver) Models() ([]Model, error) {
	g, err := r.loaded()
	if err != nil {
		return nil, err
	}

	ret := make([]Model, 0, len(g.order))
	for _, id := range g.order {
		m, err := g.flatten(id)
		if err != nil {
			return nil, err
		}
		ret = append(ret, m)
	}

	return ret, nil
}

// Properties returns the schemas of all properties of a model by name.
func (r *Resolver) Properties(id string) (map[string]Schema, error) {
	m, err := r.Model(id)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]Schema, len(m.Properties))
	for _, p := range m.Properties {
		ret[p.Name] = p.Schema
	}

	return ret, nil
}

// DefaultProperties returns the property document of a new twin of the
// given model.
func (r *Resolver) DefaultProperties(id string) (map[string]any, error) {
	m, err := r.Model(id)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]any, len(m.Properties)+len(m.Components))
	for _, p := range m.Properties {
		ret[p.Name] = PropertyDefault(p.Schema, nil)
	}
	for _, c := range m.Components {
		ret[c.Name] = map[string]any{twins.MetadataKey: map[string]any{}}
	}

	return ret, nil
}

// Relationships returns the relationships a twin of the source model may
// have to a twin of the target model. An empty target returns every
// relationship of the source model.
func (r *Resolver) Relationships(sourceID, targetID string) ([]RelationshipDecl, error) {
	g, err := r.loaded()
	if err != nil {
		return nil, err
	}
	m, err := g.flatten(sourceID)
	if err != nil {
		return nil, err
	}
	if targetID == "" {
		return m.Relationships, nil
	}

	accepted := g.bases(targetID)
	var ret []RelationshipDecl
	for _, rel := range m.Relationships {
		if _, ok := accepted[rel.Target]; rel.Target == "" || ok {
			ret = append(ret, rel)
		}
	}

	return ret, nil
}

// DisplayName returns the display name of a model, or its id.
func (r *Resolver) DisplayName(id string) string {
	g, err := r.loaded()
	if err != nil {
		return id
	}
	if n, ok := g.nodes[id]; ok && n.displayName != "" {
		return n.displayName
	}

	return id
}
