// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/pkg/batch"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"github.com/hashicorp/go-multierror"
)

type service struct {
	client   twins.Client
	resolver *models.Resolver
	loader   *graph.Loader
	canvas   *graph.MemoryCanvas
	idp      twinexplorer.IDProvider
}

var _ Service = (*service)(nil)

// New instantiates the explorer service implementation.
func New(client twins.Client, canvas *graph.MemoryCanvas, idp twinexplorer.IDProvider, logger *slog.Logger) Service {
	return &service{
		client:   client,
		resolver: models.New(client),
		loader:   graph.NewLoader(client, canvas, logger),
		canvas:   canvas,
		idp:      idp,
	}
}

func (svc *service) LoadGraph(ctx context.Context, query string, opts graph.LoadOptions) (graph.LoadResult, error) {
	return svc.loader.Load(ctx, query, opts)
}

func (svc *service) Expand(ctx context.Context, ids []string, opts graph.LoadOptions) (graph.LoadResult, error) {
	return svc.loader.Expand(ctx, ids, opts)
}

func (svc *service) Cancel(_ context.Context) {
	svc.loader.Cancel()
}

func (svc *service) Graph(_ context.Context) graph.Snapshot {
	return svc.canvas.Snapshot()
}

func (svc *service) Select(_ context.Context, id string) error {
	if id != "" && !svc.canvas.HasTwin(id) {
		return errors.Wrap(errors.ErrNotFound, fmt.Errorf("twin %s is not rendered", id))
	}
	svc.canvas.Select(id)

	return nil
}

func (svc *service) Highlight(_ context.Context, ids []string) error {
	for _, id := range ids {
		if !svc.canvas.HasTwin(id) {
			return errors.Wrap(errors.ErrNotFound, fmt.Errorf("twin %s is not rendered", id))
		}
	}
	svc.canvas.Highlight(ids)

	return nil
}

func (svc *service) SetFilter(_ context.Context, filter string) {
	svc.canvas.SetFilter(filter)
}

func (svc *service) CreateTwin(ctx context.Context, modelID, id string, props map[string]any) (twins.Twin, error) {
	if err := svc.resolver.Initialize(ctx); err != nil {
		return twins.Twin{}, err
	}
	m, err := svc.resolver.Model(modelID)
	if err != nil {
		return twins.Twin{}, err
	}
	if !m.Defined {
		return twins.Twin{}, errors.Wrap(models.ErrUnknownModel, errors.New(modelID))
	}

	if id == "" {
		if id, err = svc.idp.ID(); err != nil {
			return twins.Twin{}, err
		}
	}

	properties := make(map[string]any, len(m.Components)+len(props))
	for _, c := range m.Components {
		properties[c.Name] = map[string]any{twins.MetadataKey: map[string]any{}}
	}
	for k, v := range props {
		properties[k] = v
	}

	tw, err := svc.client.AddTwin(ctx, twins.Twin{ID: id, ModelID: modelID, Properties: properties})
	if err != nil {
		return twins.Twin{}, err
	}
	svc.canvas.AddTwins([]twins.Twin{tw})

	return tw, nil
}

func (svc *service) TwinTemplate(ctx context.Context, modelID string) (map[string]any, error) {
	if err := svc.resolver.Initialize(ctx); err != nil {
		return nil, err
	}

	return svc.resolver.DefaultProperties(modelID)
}

func (svc *service) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) (twins.Twin, error) {
	if err := svc.client.UpdateTwin(ctx, id, patches); err != nil {
		return twins.Twin{}, err
	}
	tw, err := svc.client.Twin(ctx, id)
	if err != nil {
		return twins.Twin{}, err
	}
	if svc.canvas.HasTwin(id) {
		svc.canvas.AddTwins([]twins.Twin{tw})
	}

	return tw, nil
}

func (svc *service) DeleteTwins(ctx context.Context, ids []string) error {
	err := batch.Run(ctx, ids, svc.deleteTwin)
	if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}

	return err
}

// deleteTwin deletes the relationships of a twin in both directions and
// then the twin. Relationships already gone are skipped.
func (svc *service) deleteTwin(ctx context.Context, id string) error {
	var rels []twins.Relationship
	seen := make(map[string]bool)
	err := svc.client.QueryRelationshipsPaged(ctx, id, twins.All, func(page twins.RelationshipPage) error {
		for _, rel := range page.Relationships {
			if !seen[rel.IDKey()] {
				seen[rel.IDKey()] = true
				rels = append(rels, rel)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]twins.RelationshipKey, 0, len(rels))
	for _, rel := range rels {
		if err := svc.client.DeleteRelationship(ctx, rel.SourceID, rel.ID); err != nil && !errors.Contains(err, errors.ErrNotFound) {
			return err
		}
		keys = append(keys, rel.Key())
	}
	svc.canvas.RemoveRelationships(keys)

	if err := svc.client.DeleteTwin(ctx, id); err != nil {
		return err
	}
	svc.canvas.RemoveTwins([]string{id})

	return nil
}

func (svc *service) CreateRelationship(ctx context.Context, sourceID, targetID, name string, props map[string]any) (twins.Relationship, error) {
	allowed, err := svc.AllowedRelationships(ctx, sourceID, targetID)
	if err != nil {
		return twins.Relationship{}, err
	}
	declared := false
	for _, decl := range allowed {
		if decl.Name == name {
			declared = true
			break
		}
	}
	if !declared {
		return twins.Relationship{}, errors.Wrap(ErrRelationshipNotAllowed, fmt.Errorf("%s from %s to %s", name, sourceID, targetID))
	}

	id, err := svc.idp.ID()
	if err != nil {
		return twins.Relationship{}, err
	}
	rel, err := svc.client.AddRelationship(ctx, twins.Relationship{
		ID:         id,
		SourceID:   sourceID,
		TargetID:   targetID,
		Name:       name,
		Properties: props,
	})
	if err != nil {
		return twins.Relationship{}, err
	}
	svc.canvas.AddRelationships([]twins.Relationship{rel})

	return rel, nil
}

func (svc *service) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	if err := svc.client.DeleteRelationship(ctx, sourceID, id); err != nil {
		return err
	}

	var keys []twins.RelationshipKey
	for _, rel := range svc.canvas.Relationships() {
		if rel.SourceID == sourceID && rel.ID == id {
			keys = append(keys, rel.Key())
		}
	}
	svc.canvas.RemoveRelationships(keys)

	return nil
}

func (svc *service) Relationship(ctx context.Context, sourceID, id string) (twins.Relationship, error) {
	return svc.client.Relationship(ctx, sourceID, id)
}

func (svc *service) AllowedRelationships(ctx context.Context, sourceID, targetID string) ([]models.RelationshipDecl, error) {
	src, err := svc.client.Twin(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	targetModel := ""
	if targetID != "" {
		dst, err := svc.client.Twin(ctx, targetID)
		if err != nil {
			return nil, err
		}
		targetModel = dst.ModelID
	}
	if err := svc.resolver.Initialize(ctx); err != nil {
		return nil, err
	}

	return svc.resolver.Relationships(src.ModelID, targetModel)
}

func (svc *service) Models(ctx context.Context) ([]models.Model, error) {
	if err := svc.resolver.Initialize(ctx); err != nil {
		return nil, err
	}

	return svc.resolver.Models()
}

func (svc *service) Model(ctx context.Context, id string) (models.Model, error) {
	if err := svc.resolver.Initialize(ctx); err != nil {
		return models.Model{}, err
	}

	return svc.resolver.Model(id)
}

func (svc *service) ModelDocument(ctx context.Context, id string) (twins.ModelData, error) {
	return svc.client.Model(ctx, id)
}

func (svc *service) UploadModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyModelSet
	}
	ids, byID, err := models.Documents(docs)
	if err != nil {
		return nil, err
	}

	local := models.New(nil)
	if err := local.InitializeWithModels(docs); err != nil {
		return nil, err
	}
	order, err := local.UploadOrder(ids)
	if err != nil {
		return nil, err
	}
	ordered := make([]json.RawMessage, 0, len(order))
	for _, id := range order {
		ordered = append(ordered, byID[id])
	}

	defer svc.resolver.Invalidate()

	return svc.client.AddModels(ctx, ordered)
}

func (svc *service) DeleteModel(ctx context.Context, id string) error {
	defer svc.resolver.Invalidate()

	return svc.client.DeleteModel(ctx, id)
}

func (svc *service) DeleteAllModels(ctx context.Context) ([]string, error) {
	catalog, err := svc.client.Models(ctx, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(catalog))
	for _, md := range catalog {
		ids = append(ids, md.ID)
	}
	if err := svc.resolver.Initialize(ctx); err != nil {
		return nil, err
	}

	return svc.resolver.DeleteAll(ctx, ids, svc.client.DeleteModel)
}

func (svc *service) ModelOrder(ctx context.Context, ids []string) ([]string, error) {
	if err := svc.resolver.Initialize(ctx); err != nil {
		return nil, err
	}

	return svc.resolver.UploadOrder(ids)
}

func (svc *service) ClearCache(ctx context.Context) error {
	defer svc.resolver.Invalidate()

	return svc.client.ClearCache(ctx)
}
