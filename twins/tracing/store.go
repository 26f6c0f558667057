// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tracing contains OpenTelemetry decorators of the twin store.
package tracing

import (
	"context"
	"encoding/json"

	"github.com/absmach/twinexplorer/twins"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryTwinsOp                = "query_twins"
	listRelationshipsOp         = "list_relationships"
	listIncomingRelationshipsOp = "list_incoming_relationships"
	listModelsOp                = "list_models"
	viewTwinOp                  = "view_twin"
	addTwinOp                   = "add_twin"
	updateTwinOp                = "update_twin"
	deleteTwinOp                = "delete_twin"
	viewRelationshipOp          = "view_relationship"
	addRelationshipOp           = "add_relationship"
	deleteRelationshipOp        = "delete_relationship"
	viewModelOp                 = "view_model"
	addModelsOp                 = "add_models"
	deleteModelOp               = "delete_model"
)

var _ twins.Store = (*storeMiddleware)(nil)

type storeMiddleware struct {
	tracer trace.Tracer
	store  twins.Store
}

// New returns a twins.Store that adds a span to every store call.
func New(tracer trace.Tracer, store twins.Store) twins.Store {
	return storeMiddleware{
		tracer: tracer,
		store:  store,
	}
}

func (sm storeMiddleware) QueryTwins(ctx context.Context, query, continuationToken string) (twins.QueryPage, error) {
	ctx, span := createSpan(ctx, sm.tracer, queryTwinsOp,
		attribute.String("query", query),
		attribute.Bool("continued", continuationToken != ""),
	)
	defer span.End()

	return sm.store.QueryTwins(ctx, query, continuationToken)
}

func (sm storeMiddleware) ListRelationships(ctx context.Context, twinID, nextLink string) (twins.RelationshipsPage, error) {
	ctx, span := createSpan(ctx, sm.tracer, listRelationshipsOp, attribute.String("twin_id", twinID))
	defer span.End()

	return sm.store.ListRelationships(ctx, twinID, nextLink)
}

func (sm storeMiddleware) ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (twins.IncomingRelationshipsPage, error) {
	ctx, span := createSpan(ctx, sm.tracer, listIncomingRelationshipsOp, attribute.String("twin_id", twinID))
	defer span.End()

	return sm.store.ListIncomingRelationships(ctx, twinID, nextLink)
}

func (sm storeMiddleware) ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (twins.ModelsPage, error) {
	ctx, span := createSpan(ctx, sm.tracer, listModelsOp, attribute.Bool("definitions", includeDefinitions))
	defer span.End()

	return sm.store.ListModels(ctx, includeDefinitions, nextLink)
}

func (sm storeMiddleware) Twin(ctx context.Context, id string) (twins.RawTwin, error) {
	ctx, span := createSpan(ctx, sm.tracer, viewTwinOp, attribute.String("twin_id", id))
	defer span.End()

	return sm.store.Twin(ctx, id)
}

func (sm storeMiddleware) AddTwin(ctx context.Context, twin twins.RawTwin) (twins.RawTwin, error) {
	ctx, span := createSpan(ctx, sm.tracer, addTwinOp,
		attribute.String("twin_id", twin.ID),
		attribute.String("model_id", twin.ModelID),
	)
	defer span.End()

	return sm.store.AddTwin(ctx, twin)
}

func (sm storeMiddleware) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) error {
	ctx, span := createSpan(ctx, sm.tracer, updateTwinOp, attribute.String("twin_id", id))
	defer span.End()

	return sm.store.UpdateTwin(ctx, id, patches)
}

func (sm storeMiddleware) DeleteTwin(ctx context.Context, id string) error {
	ctx, span := createSpan(ctx, sm.tracer, deleteTwinOp, attribute.String("twin_id", id))
	defer span.End()

	return sm.store.DeleteTwin(ctx, id)
}

func (sm storeMiddleware) Relationship(ctx context.Context, sourceID, id string) (twins.RawRelationship, error) {
	ctx, span := createSpan(ctx, sm.tracer, viewRelationshipOp,
		attribute.String("source_id", sourceID),
		attribute.String("relationship_id", id),
	)
	defer span.End()

	return sm.store.Relationship(ctx, sourceID, id)
}

func (sm storeMiddleware) AddRelationship(ctx context.Context, rel twins.RawRelationship) (twins.RawRelationship, error) {
	ctx, span := createSpan(ctx, sm.tracer, addRelationshipOp,
		attribute.String("source_id", rel.SourceID),
		attribute.String("relationship_id", rel.ID),
	)
	defer span.End()

	return sm.store.AddRelationship(ctx, rel)
}

func (sm storeMiddleware) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	ctx, span := createSpan(ctx, sm.tracer, deleteRelationshipOp,
		attribute.String("source_id", sourceID),
		attribute.String("relationship_id", id),
	)
	defer span.End()

	return sm.store.DeleteRelationship(ctx, sourceID, id)
}

func (sm storeMiddleware) Model(ctx context.Context, id string) (twins.ModelData, error) {
	ctx, span := createSpan(ctx, sm.tracer, viewModelOp, attribute.String("model_id", id))
	defer span.End()

	return sm.store.Model(ctx, id)
}

func (sm storeMiddleware) AddModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	ctx, span := createSpan(ctx, sm.tracer, addModelsOp, attribute.Int("documents", len(docs)))
	defer span.End()

	return sm.store.AddModels(ctx, docs)
}

func (sm storeMiddleware) DeleteModel(ctx context.Context, id string) error {
	ctx, span := createSpan(ctx, sm.tracer, deleteModelOp, attribute.String("model_id", id))
	defer span.End()

	return sm.store.DeleteModel(ctx, id)
}

func createSpan(ctx context.Context, tracer trace.Tracer, opName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, opName, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindClient))
}
