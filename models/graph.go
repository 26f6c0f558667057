// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/absmach/twinexplorer/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// node is a model in the arena. Contents keep their raw schemas; schemas
// are inferred when a model is queried.
type node struct {
	id          string
	defined     bool
	displayName string
	description string
	extends     []string
	components  []componentNode
	contents    []contentDoc
}

type componentNode struct {
	name        string
	displayName string
	schema      string
}

// dependencies returns the models that must exist before this one.
func (n *node) dependencies() []string {
	deps := append([]string{}, n.extends...)
	for _, c := range n.components {
		deps = append(deps, c.schema)
	}

	return deps
}

// modelGraph is an arena of models addressed by id.
type modelGraph struct {
	nodes   map[string]*node
	order   []string
	schemas map[string]json.RawMessage
}

func newModelGraph() *modelGraph {
	return &modelGraph{
		nodes:   make(map[string]*node),
		schemas: make(map[string]json.RawMessage),
	}
}

// add decodes an interface document and stores it with its inline
// interfaces.
func (g *modelGraph) add(doc json.RawMessage) error {
	docs, err := splitDocuments(doc)
	if err != nil {
		return errors.Wrap(ErrMalformedModel, err)
	}

	for _, d := range docs {
		var id interfaceDoc
		if err := json.Unmarshal(d, &id); err != nil {
			return errors.Wrap(ErrMalformedModel, err)
		}
		if err := g.addInterface(id); err != nil {
			return err
		}
	}

	return nil
}

func (g *modelGraph) addInterface(doc interfaceDoc) error {
	if doc.ID == "" {
		return errors.Wrap(ErrMalformedModel, errors.New("missing @id"))
	}
	if len(doc.Type) > 0 && !doc.Type.has(interfaceType) {
		return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: @type %s is not an interface", doc.ID, strings.Join(doc.Type, ",")))
	}

	bases, inline, err := extendsList(doc.Extends)
	if err != nil {
		return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: extends: %w", doc.ID, err))
	}
	for _, raw := range inline {
		if err := g.add(raw); err != nil {
			return err
		}
	}

	n := g.stub(doc.ID)
	if n.defined {
		return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: duplicate model", doc.ID))
	}
	n.defined = true
	n.displayName = string(doc.DisplayName)
	n.description = string(doc.Description)
	n.extends = bases

	for _, c := range doc.Contents {
		if c.Name == "" {
			return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: content without name", doc.ID))
		}
		if !c.Type.has(componentType) {
			n.contents = append(n.contents, c)
			continue
		}
		ref, inlineModel := schemaRef(c.Schema)
		if ref == "" {
			return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: component %s without schema", doc.ID, c.Name))
		}
		if inlineModel != nil {
			if err := g.add(inlineModel); err != nil {
				return err
			}
		}
		n.components = append(n.components, componentNode{
			name:        c.Name,
			displayName: string(c.DisplayName),
			schema:      ref,
		})
	}

	for _, raw := range doc.Schemas {
		var head struct {
			ID string `json:"@id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: schemas: %w", doc.ID, err))
		}
		if head.ID != "" {
			g.schemas[head.ID] = raw
		}
	}

	return nil
}

// stub returns the node with the given id, creating an undefined one.
func (g *modelGraph) stub(id string) *node {
	n, ok := g.nodes[id]
	if !ok {
		n = &node{id: id}
		g.nodes[id] = n
		g.order = append(g.order, id)
	}

	return n
}

// link creates stubs for every referenced model that was not loaded.
func (g *modelGraph) link() {
	for _, id := range append([]string{}, g.order...) {
		n := g.nodes[id]
		for _, dep := range n.dependencies() {
			g.stub(dep)
		}
		for _, c := range n.contents {
			if c.Type.has(relationshipType) && c.Target != "" {
				g.stub(c.Target)
			}
		}
	}
}

// cycles returns the groups of models that depend on each other through
// extends or component references.
func (g *modelGraph) cycles() [][]string {
	index := make(map[string]int64, len(g.order))
	for i, id := range g.order {
		index[id] = int64(i)
	}

	var ret [][]string
	dg := simple.NewDirectedGraph()
	for _, id := range g.order {
		dg.AddNode(simple.Node(index[id]))
	}
	for _, id := range g.order {
		for _, dep := range g.nodes[id].dependencies() {
			if dep == id {
				ret = append(ret, []string{id})
				continue
			}
			to, ok := index[dep]
			if !ok {
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(index[id]), simple.Node(to)))
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		unorderable, ok := err.(topo.Unorderable)
		if !ok {
			return append(ret, []string{err.Error()})
		}
		for _, component := range unorderable {
			var ids []string
			for _, n := range component {
				ids = append(ids, g.order[n.ID()])
			}
			ret = append(ret, ids)
		}
	}

	return ret
}

// bases returns id and all its transitive bases.
func (g *modelGraph) bases(id string) map[string]struct{} {
	ret := make(map[string]struct{})
	var walk func(id string)
	walk = func(id string) {
		if _, ok := ret[id]; ok {
			return
		}
		ret[id] = struct{}{}
		if n, ok := g.nodes[id]; ok {
			for _, base := range n.extends {
				walk(base)
			}
		}
	}
	walk(id)

	return ret
}

// flatten merges a model with its transitive bases. Traversal is depth
// first from the model outward and the first declaration of a name wins.
func (g *modelGraph) flatten(id string) (Model, error) {
	root, ok := g.nodes[id]
	if !ok {
		return Model{}, errors.Wrap(ErrUnknownModel, errors.New(id))
	}

	m := Model{
		ID:          root.id,
		DisplayName: root.displayName,
		Description: root.description,
		Defined:     root.defined,
		Bases:       root.extends,
	}

	seen := map[string]map[string]bool{
		propertyType:     {},
		telemetryType:    {},
		relationshipType: {},
		componentType:    {},
	}
	visited := make(map[string]bool)

	var walk func(id string, extended bool)
	walk = func(id string, extended bool) {
		if visited[id] {
			return
		}
		visited[id] = true
		n, ok := g.nodes[id]
		if !ok {
			return
		}

		for _, c := range n.contents {
			switch {
			case c.Type.has(propertyType):
				if seen[propertyType][c.Name] {
					continue
				}
				seen[propertyType][c.Name] = true
				if s, ok := g.inferSchema(c.Schema, nil); ok {
					m.Properties = append(m.Properties, Content{
						Name:        c.Name,
						DisplayName: string(c.DisplayName),
						Schema:      s,
						Writable:    c.Writable,
						Extended:    extended,
						DefinedIn:   n.id,
					})
				}
			case c.Type.has(telemetryType):
				if seen[telemetryType][c.Name] {
					continue
				}
				seen[telemetryType][c.Name] = true
				if s, ok := g.inferSchema(c.Schema, nil); ok {
					m.Telemetries = append(m.Telemetries, Content{
						Name:        c.Name,
						DisplayName: string(c.DisplayName),
						Schema:      s,
						Extended:    extended,
						DefinedIn:   n.id,
					})
				}
			case c.Type.has(relationshipType):
				if seen[relationshipType][c.Name] {
					continue
				}
				seen[relationshipType][c.Name] = true
				m.Relationships = append(m.Relationships, RelationshipDecl{
					Name:        c.Name,
					DisplayName: string(c.DisplayName),
					Target:      c.Target,
					Properties:  g.inferFields(c.Properties, nil),
					Extended:    extended,
					DefinedIn:   n.id,
				})
			}
		}
		for _, c := range n.components {
			if seen[componentType][c.name] {
				continue
			}
			seen[componentType][c.name] = true
			m.Components = append(m.Components, Component{
				Name:        c.name,
				DisplayName: c.displayName,
				Schema:      c.schema,
				Extended:    extended,
				DefinedIn:   n.id,
			})
		}

		for _, base := range n.extends {
			walk(base, true)
		}
	}
	walk(id, false)

	return m, nil
}
