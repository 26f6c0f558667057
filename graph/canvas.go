// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/absmach/twinexplorer/twins"
)

// Canvas is the presentation graph twins are rendered into. Every mutation
// is a set operation so concurrent loaders can apply them in any order.
type Canvas interface {
	// AddTwins adds twins, replacing the ones already present.
	AddTwins(tws []twins.Twin)

	// RemoveTwins removes twins and every relationship touching them.
	RemoveTwins(ids []string)

	// AddRelationships adds relationships whose endpoints are both present
	// and whose key is not, and returns the number added.
	AddRelationships(rels []twins.Relationship) int

	// RemoveRelationships removes relationships by key.
	RemoveRelationships(keys []twins.RelationshipKey)

	// Clear removes everything.
	Clear()

	// Layout lays the graph out.
	Layout(ctx context.Context) error

	// HasTwin tells whether the twin is present.
	HasTwin(id string) bool

	// Twins returns all present twins.
	Twins() []twins.Twin

	// Relationships returns all present relationships.
	Relationships() []twins.Relationship

	// Select marks the twin with the given id as current. An empty id
	// clears the selection.
	Select(id string)

	// Selected returns the current twin id.
	Selected() string

	// ResetTransient drops filters and highlights.
	ResetTransient()
}

// LayoutFunc lays out a graph.
type LayoutFunc func(ctx context.Context, tws []twins.Twin, rels []twins.Relationship) error

// Snapshot is the state of a Canvas.
type Snapshot struct {
	Twins         []twins.Twin         `json:"twins"`
	Relationships []twins.Relationship `json:"relationships"`
	Selected      string               `json:"selected,omitempty"`
	Highlighted   []string             `json:"highlighted,omitempty"`
	Filter        string               `json:"filter,omitempty"`
}

var _ Canvas = (*MemoryCanvas)(nil)

// MemoryCanvas is an in-memory Canvas.
type MemoryCanvas struct {
	mu          sync.RWMutex
	layout      LayoutFunc
	twins       map[string]twins.Twin
	rels        map[twins.RelationshipKey]twins.Relationship
	selected    string
	highlighted map[string]struct{}
	filter      string
}

// NewCanvas returns an empty in-memory canvas. A nil layout makes Layout a
// no-op.
func NewCanvas(layout LayoutFunc) *MemoryCanvas {
	return &MemoryCanvas{
		layout:      layout,
		twins:       make(map[string]twins.Twin),
		rels:        make(map[twins.RelationshipKey]twins.Relationship),
		highlighted: make(map[string]struct{}),
	}
}

func (c *MemoryCanvas) AddTwins(tws []twins.Twin) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tw := range tws {
		c.twins[tw.ID] = tw
	}
}

func (c *MemoryCanvas) RemoveTwins(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.twins[id]; !ok {
			continue
		}
		delete(c.twins, id)
		delete(c.highlighted, id)
		removed[id] = struct{}{}
		if c.selected == id {
			c.selected = ""
		}
	}
	if len(removed) == 0 {
		return
	}
	for key := range c.rels {
		_, src := removed[key.SourceID]
		_, dst := removed[key.TargetID]
		if src || dst {
			delete(c.rels, key)
		}
	}
}

func (c *MemoryCanvas) AddRelationships(rels []twins.Relationship) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, rel := range rels {
		if _, ok := c.twins[rel.SourceID]; !ok {
			continue
		}
		if _, ok := c.twins[rel.TargetID]; !ok {
			continue
		}
		key := rel.Key()
		if _, ok := c.rels[key]; ok {
			continue
		}
		c.rels[key] = rel
		added++
	}

	return added
}

func (c *MemoryCanvas) RemoveRelationships(keys []twins.RelationshipKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.rels, key)
	}
}

func (c *MemoryCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.twins = make(map[string]twins.Twin)
	c.rels = make(map[twins.RelationshipKey]twins.Relationship)
	c.highlighted = make(map[string]struct{})
	c.selected = ""
	c.filter = ""
}

func (c *MemoryCanvas) Layout(ctx context.Context) error {
	if c.layout == nil {
		return nil
	}

	return c.layout(ctx, c.Twins(), c.Relationships())
}

func (c *MemoryCanvas) HasTwin(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.twins[id]
	return ok
}

// Twins returns the present twins ordered by id.
func (c *MemoryCanvas) Twins() []twins.Twin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ret := make([]twins.Twin, 0, len(c.twins))
	for _, tw := range c.twins {
		ret = append(ret, tw)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })

	return ret
}

// Relationships returns the present relationships ordered by key.
func (c *MemoryCanvas) Relationships() []twins.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ret := make([]twins.Relationship, 0, len(c.rels))
	for _, rel := range c.rels {
		ret = append(ret, rel)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Key().String() < ret[j].Key().String() })

	return ret
}

func (c *MemoryCanvas) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.twins[id]; !ok {
		id = ""
	}
	c.selected = id
}

func (c *MemoryCanvas) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.selected
}

// Highlight replaces the highlighted twins with the present ones among ids.
func (c *MemoryCanvas) Highlight(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.highlighted = make(map[string]struct{})
	for _, id := range ids {
		if _, ok := c.twins[id]; ok {
			c.highlighted[id] = struct{}{}
		}
	}
}

// SetFilter sets the text twins are filtered by.
func (c *MemoryCanvas) SetFilter(filter string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = filter
}

func (c *MemoryCanvas) ResetTransient() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.highlighted = make(map[string]struct{})
	c.filter = ""
}

// Snapshot returns a copy of the canvas state.
func (c *MemoryCanvas) Snapshot() Snapshot {
	s := Snapshot{
		Twins:         c.Twins(),
		Relationships: c.Relationships(),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s.Selected = c.selected
	s.Filter = c.filter
	for id := range c.highlighted {
		s.Highlighted = append(s.Highlighted, id)
	}
	sort.Strings(s.Highlighted)

	return s
}
