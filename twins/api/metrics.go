// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/absmach/twinexplorer/twins"
	"github.com/go-kit/kit/metrics"
)

var _ twins.Store = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	store   twins.Store
}

// MetricsMiddleware instruments the twin store by tracking request count and latency.
func MetricsMiddleware(store twins.Store, counter metrics.Counter, latency metrics.Histogram) twins.Store {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		store:   store,
	}
}

func (ms *metricsMiddleware) observe(method string, begin time.Time) {
	ms.counter.With("method", method).Add(1)
	ms.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (ms *metricsMiddleware) QueryTwins(ctx context.Context, query, continuationToken string) (twins.QueryPage, error) {
	defer ms.observe("query_twins", time.Now())
	return ms.store.QueryTwins(ctx, query, continuationToken)
}

func (ms *metricsMiddleware) ListRelationships(ctx context.Context, twinID, nextLink string) (twins.RelationshipsPage, error) {
	defer ms.observe("list_relationships", time.Now())
	return ms.store.ListRelationships(ctx, twinID, nextLink)
}

func (ms *metricsMiddleware) ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (twins.IncomingRelationshipsPage, error) {
	defer ms.observe("list_incoming_relationships", time.Now())
	return ms.store.ListIncomingRelationships(ctx, twinID, nextLink)
}

func (ms *metricsMiddleware) ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (twins.ModelsPage, error) {
	defer ms.observe("list_models", time.Now())
	return ms.store.ListModels(ctx, includeDefinitions, nextLink)
}

func (ms *metricsMiddleware) Twin(ctx context.Context, id string) (twins.RawTwin, error) {
	defer ms.observe("view_twin", time.Now())
	return ms.store.Twin(ctx, id)
}

func (ms *metricsMiddleware) AddTwin(ctx context.Context, twin twins.RawTwin) (twins.RawTwin, error) {
	defer ms.observe("add_twin", time.Now())
	return ms.store.AddTwin(ctx, twin)
}

func (ms *metricsMiddleware) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) error {
	defer ms.observe("update_twin", time.Now())
	return ms.store.UpdateTwin(ctx, id, patches)
}

func (ms *metricsMiddleware) DeleteTwin(ctx context.Context, id string) error {
	defer ms.observe("delete_twin", time.Now())
	return ms.store.DeleteTwin(ctx, id)
}

func (ms *metricsMiddleware) Relationship(ctx context.Context, sourceID, id string) (twins.RawRelationship, error) {
	defer ms.observe("view_relationship", time.Now())
	return ms.store.Relationship(ctx, sourceID, id)
}

func (ms *metricsMiddleware) AddRelationship(ctx context.Context, rel twins.RawRelationship) (twins.RawRelationship, error) {
	defer ms.observe("add_relationship", time.Now())
	return ms.store.AddRelationship(ctx, rel)
}

func (ms *metricsMiddleware) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	defer ms.observe("delete_relationship", time.Now())
	return ms.store.DeleteRelationship(ctx, sourceID, id)
}

func (ms *metricsMiddleware) Model(ctx context.Context, id string) (twins.ModelData, error) {
	defer ms.observe("view_model", time.Now())
	return ms.store.Model(ctx, id)
}

func (ms *metricsMiddleware) AddModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	defer ms.observe("add_models", time.Now())
	return ms.store.AddModels(ctx, docs)
}

func (ms *metricsMiddleware) DeleteModel(ctx context.Context, id string) error {
	defer ms.observe("delete_model", time.Now())
	return ms.store.DeleteModel(ctx, id)
}
