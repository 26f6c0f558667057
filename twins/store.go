// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"context"
	"encoding/json"
)

// QueryPage is one page of twin query results. Items are untyped because
// projections and joins return twins nested in other records.
type QueryPage struct {
	Items             []map[string]any `json:"value"`
	ContinuationToken string           `json:"continuationToken,omitempty"`
}

// RelationshipsPage is one page of outgoing relationships.
type RelationshipsPage struct {
	Items    []RawRelationship `json:"value"`
	NextLink string            `json:"nextLink,omitempty"`
}

// IncomingRelationshipsPage is one page of incoming relationships.
type IncomingRelationshipsPage struct {
	Items    []RawIncomingRelationship `json:"value"`
	NextLink string                    `json:"nextLink,omitempty"`
}

// ModelsPage is one page of the model catalog.
type ModelsPage struct {
	Items    []ModelData `json:"value"`
	NextLink string      `json:"nextLink,omitempty"`
}

// Store specifies the remote twin store protocol. Every listing call
// returns a single page; an empty continuation token or next link requests
// the first page and is returned with the last one.
type Store interface {
	// QueryTwins runs a twin query.
	QueryTwins(ctx context.Context, query, continuationToken string) (QueryPage, error)

	// ListRelationships lists relationships whose source is twinID.
	ListRelationships(ctx context.Context, twinID, nextLink string) (RelationshipsPage, error)

	// ListIncomingRelationships lists relationships whose target is twinID.
	ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (IncomingRelationshipsPage, error)

	// ListModels lists the model catalog, optionally with model documents.
	ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (ModelsPage, error)

	// Twin retrieves a single twin.
	Twin(ctx context.Context, id string) (RawTwin, error)

	// AddTwin creates or replaces a twin.
	AddTwin(ctx context.Context, twin RawTwin) (RawTwin, error)

	// UpdateTwin applies a JSON Patch to a twin.
	UpdateTwin(ctx context.Context, id string, patches []Patch) error

	// DeleteTwin removes a twin without relationships.
	DeleteTwin(ctx context.Context, id string) error

	// Relationship retrieves a relationship of the source twin.
	Relationship(ctx context.Context, sourceID, id string) (RawRelationship, error)

	// AddRelationship creates or replaces a relationship.
	AddRelationship(ctx context.Context, rel RawRelationship) (RawRelationship, error)

	// DeleteRelationship removes a relationship of the source twin.
	DeleteRelationship(ctx context.Context, sourceID, id string) error

	// Model retrieves a model with its document.
	Model(ctx context.Context, id string) (ModelData, error)

	// AddModels uploads model documents. Dependencies of a document must be
	// uploaded before or together with it.
	AddModels(ctx context.Context, docs []json.RawMessage) ([]ModelData, error)

	// DeleteModel removes a model no other model depends on.
	DeleteModel(ctx context.Context, id string) error
}
