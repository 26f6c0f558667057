// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package explorer composes the twin client, the model resolver and the
// graph loader into the operations of the twin graph explorer.
package explorer

import (
	"context"
	"encoding/json"

	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

var (
	// ErrRelationshipNotAllowed indicates a relationship the source model
	// does not declare for the target model.
	ErrRelationshipNotAllowed = errors.New("relationship is not allowed between the twin models")

	// ErrEmptyModelSet indicates an upload without model documents.
	ErrEmptyModelSet = errors.New("no models to upload")
)

// Service specifies the explorer API.
type Service interface {
	// LoadGraph renders the twins returned by query and their relationships.
	LoadGraph(ctx context.Context, query string, opts graph.LoadOptions) (graph.LoadResult, error)

	// Expand renders the relationships of twins already in the graph.
	Expand(ctx context.Context, ids []string, opts graph.LoadOptions) (graph.LoadResult, error)

	// Cancel stops running loads.
	Cancel(ctx context.Context)

	// Graph returns the rendered graph.
	Graph(ctx context.Context) graph.Snapshot

	// Select marks a rendered twin as current. An empty id clears the
	// selection.
	Select(ctx context.Context, id string) error

	// Highlight replaces the highlighted twins. Every id must be rendered;
	// an empty list clears the highlight.
	Highlight(ctx context.Context, ids []string) error

	// SetFilter sets the text rendered twins are filtered by. An empty
	// filter clears it.
	SetFilter(ctx context.Context, filter string)

	// CreateTwin creates a twin of the given model. An id is generated when
	// id is empty.
	CreateTwin(ctx context.Context, modelID, id string, props map[string]any) (twins.Twin, error)

	// TwinTemplate returns the property document an editor starts from for
	// a new twin of the given model.
	TwinTemplate(ctx context.Context, modelID string) (map[string]any, error)

	// UpdateTwin applies a JSON patch to a twin.
	UpdateTwin(ctx context.Context, id string, patches []twins.Patch) (twins.Twin, error)

	// DeleteTwins deletes twins together with their relationships.
	DeleteTwins(ctx context.Context, ids []string) error

	// CreateRelationship creates a relationship declared by the source
	// twin's model.
	CreateRelationship(ctx context.Context, sourceID, targetID, name string, props map[string]any) (twins.Relationship, error)

	// DeleteRelationship deletes a relationship.
	DeleteRelationship(ctx context.Context, sourceID, id string) error

	// Relationship retrieves a relationship of the source twin from the
	// store.
	Relationship(ctx context.Context, sourceID, id string) (twins.Relationship, error)

	// AllowedRelationships returns the relationships the source twin may
	// have to the target twin, or every relationship of the source twin
	// when targetID is empty.
	AllowedRelationships(ctx context.Context, sourceID, targetID string) ([]models.RelationshipDecl, error)

	// Models returns every model of the instance.
	Models(ctx context.Context) ([]models.Model, error)

	// Model returns a model flattened with its bases.
	Model(ctx context.Context, id string) (models.Model, error)

	// ModelDocument retrieves a model as stored, with its definition.
	ModelDocument(ctx context.Context, id string) (twins.ModelData, error)

	// UploadModels uploads model documents, bases and components first.
	UploadModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error)

	// DeleteModel deletes a single model.
	DeleteModel(ctx context.Context, id string) error

	// DeleteAllModels deletes every model, dependents first, and returns
	// the deleted ids in order.
	DeleteAllModels(ctx context.Context) ([]string, error)

	// ModelOrder returns ids ordered for upload.
	ModelOrder(ctx context.Context, ids []string) ([]string, error)

	// ClearCache drops cached relationships and models.
	ClearCache(ctx context.Context) error
}
