// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/twins"
	"github.com/go-kit/kit/metrics"
)

var _ explorer.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	size    metrics.Gauge
	svc     explorer.Service
}

// MetricsMiddleware instruments the explorer service by tracking request
// count and latency, and the size of the rendered graph.
func MetricsMiddleware(svc explorer.Service, counter metrics.Counter, latency metrics.Histogram, size metrics.Gauge) explorer.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		size:    size,
		svc:     svc,
	}
}

func (ms *metricsMiddleware) observe(method string, begin time.Time) {
	ms.counter.With("method", method).Add(1)
	ms.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (ms *metricsMiddleware) measure(ctx context.Context) {
	snap := ms.svc.Graph(ctx)
	ms.size.With("kind", "twins").Set(float64(len(snap.Twins)))
	ms.size.With("kind", "relationships").Set(float64(len(snap.Relationships)))
}

func (ms *metricsMiddleware) LoadGraph(ctx context.Context, query string, opts graph.LoadOptions) (graph.LoadResult, error) {
	defer ms.measure(ctx)
	defer ms.observe("load_graph", time.Now())
	return ms.svc.LoadGraph(ctx, query, opts)
}

func (ms *metricsMiddleware) Expand(ctx context.Context, ids []string, opts graph.LoadOptions) (graph.LoadResult, error) {
	defer ms.measure(ctx)
	defer ms.observe("expand_graph", time.Now())
	return ms.svc.Expand(ctx, ids, opts)
}

func (ms *metricsMiddleware) Cancel(ctx context.Context) {
	defer ms.observe("cancel", time.Now())
	ms.svc.Cancel(ctx)
}

func (ms *metricsMiddleware) Graph(ctx context.Context) graph.Snapshot {
	defer ms.observe("view_graph", time.Now())
	return ms.svc.Graph(ctx)
}

func (ms *metricsMiddleware) Select(ctx context.Context, id string) error {
	defer ms.observe("select_twin", time.Now())
	return ms.svc.Select(ctx, id)
}

func (ms *metricsMiddleware) Highlight(ctx context.Context, ids []string) error {
	defer ms.observe("highlight_twins", time.Now())
	return ms.svc.Highlight(ctx, ids)
}

func (ms *metricsMiddleware) SetFilter(ctx context.Context, filter string) {
	defer ms.observe("set_filter", time.Now())
	ms.svc.SetFilter(ctx, filter)
}

func (ms *metricsMiddleware) CreateTwin(ctx context.Context, modelID, id string, props map[string]any) (twins.Twin, error) {
	defer ms.measure(ctx)
	defer ms.observe("create_twin", time.Now())
	return ms.svc.CreateTwin(ctx, modelID, id, props)
}

func (ms *metricsMiddleware) TwinTemplate(ctx context.Context, modelID string) (map[string]any, error) {
	defer ms.observe("view_twin_template", time.Now())
	return ms.svc.TwinTemplate(ctx, modelID)
}

func (ms *metricsMiddleware) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) (twins.Twin, error) {
	defer ms.observe("update_twin", time.Now())
	return ms.svc.UpdateTwin(ctx, id, patches)
}

func (ms *metricsMiddleware) DeleteTwins(ctx context.Context, ids []string) error {
	defer ms.measure(ctx)
	defer ms.observe("delete_twins", time.Now())
	return ms.svc.DeleteTwins(ctx, ids)
}

func (ms *metricsMiddleware) CreateRelationship(ctx context.Context, sourceID, targetID, name string, props map[string]any) (twins.Relationship, error) {
	defer ms.measure(ctx)
	defer ms.observe("create_relationship", time.Now())
	return ms.svc.CreateRelationship(ctx, sourceID, targetID, name, props)
}

func (ms *metricsMiddleware) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	defer ms.measure(ctx)
	defer ms.observe("delete_relationship", time.Now())
	return ms.svc.DeleteRelationship(ctx, sourceID, id)
}

func (ms *metricsMiddleware) Relationship(ctx context.Context, sourceID, id string) (twins.Relationship, error) {
	defer ms.observe("view_relationship", time.Now())
	return ms.svc.Relationship(ctx, sourceID, id)
}

func (ms *metricsMiddleware) AllowedRelationships(ctx context.Context, sourceID, targetID string) ([]models.RelationshipDecl, error) {
	defer ms.observe("list_allowed_relationships", time.Now())
	return ms.svc.AllowedRelationships(ctx, sourceID, targetID)
}

func (ms *metricsMiddleware) Models(ctx context.Context) ([]models.Model, error) {
	defer ms.observe("list_models", time.Now())
	return ms.svc.Models(ctx)
}

func (ms *metricsMiddleware) Model(ctx context.Context, id string) (models.Model, error) {
	defer ms.observe("view_model", time.Now())
	return ms.svc.Model(ctx, id)
}

func (ms *metricsMiddleware) ModelDocument(ctx context.Context, id string) (twins.ModelData, error) {
	defer ms.observe("view_model_document", time.Now())
	return ms.svc.ModelDocument(ctx, id)
}

func (ms *metricsMiddleware) UploadModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	defer ms.observe("upload_models", time.Now())
	return ms.svc.UploadModels(ctx, docs)
}

func (ms *metricsMiddleware) DeleteModel(ctx context.Context, id string) error {
	defer ms.observe("delete_model", time.Now())
	return ms.svc.DeleteModel(ctx, id)
}

func (ms *metricsMiddleware) DeleteAllModels(ctx context.Context) ([]string, error) {
	defer ms.observe("delete_all_models", time.Now())
	return ms.svc.DeleteAllModels(ctx)
}

func (ms *metricsMiddleware) ModelOrder(ctx context.Context, ids []string) ([]string, error) {
	defer ms.observe("order_models", time.Now())
	return ms.svc.ModelOrder(ctx, ids)
}

func (ms *metricsMiddleware) ClearCache(ctx context.Context) error {
	defer ms.observe("clear_cache", time.Now())
	return ms.svc.ClearCache(ctx)
}
