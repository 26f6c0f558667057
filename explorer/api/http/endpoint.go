// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"

	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/internal/apiutil"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func loadGraphEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadGraphReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		res, err := svc.LoadGraph(ctx, req.Query, req.opts)
		if err != nil {
			return nil, err
		}

		return loadRes{LoadResult: res}, nil
	}
}

func expandEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(expandReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		res, err := svc.Expand(ctx, req.IDs, req.opts)
		if err != nil {
			return nil, err
		}

		return loadRes{LoadResult: res}, nil
	}
}

func cancelEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		svc.Cancel(ctx)

		return emptyRes{}, nil
	}
}

func viewGraphEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		return graphRes{Snapshot: svc.Graph(ctx)}, nil
	}
}

func selectEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(selectReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.Select(ctx, req.ID); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func highlightEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(highlightReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.Highlight(ctx, req.IDs); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func filterEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(filterReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		svc.SetFilter(ctx, req.Filter)

		return emptyRes{}, nil
	}
}

func createTwinEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(createTwinReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		tw, err := svc.CreateTwin(ctx, req.ModelID, req.ID, req.Properties)
		if err != nil {
			return nil, err
		}

		return twinRes{Twin: tw, created: true}, nil
	}
}

func twinTemplateEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(modelReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		props, err := svc.TwinTemplate(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return templateRes{ModelID: req.id, Properties: props}, nil
	}
}

func updateTwinEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(updateTwinReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		tw, err := svc.UpdateTwin(ctx, req.id, req.patches)
		if err != nil {
			return nil, err
		}

		return twinRes{Twin: tw}, nil
	}
}

func deleteTwinsEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(deleteTwinsReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteTwins(ctx, req.ids); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func createRelationshipEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(createRelationshipReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		rel, err := svc.CreateRelationship(ctx, req.sourceID, req.TargetID, req.Name, req.Properties)
		if err != nil {
			return nil, err
		}

		return relationshipRes{Relationship: rel, created: true}, nil
	}
}

func viewRelationshipEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(relationshipReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		rel, err := svc.Relationship(ctx, req.sourceID, req.id)
		if err != nil {
			return nil, err
		}

		return relationshipRes{Relationship: rel}, nil
	}
}

func deleteRelationshipEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(relationshipReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteRelationship(ctx, req.sourceID, req.id); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func allowedRelationshipsEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(allowedRelationshipsReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		decls, err := svc.AllowedRelationships(ctx, req.sourceID, req.targetID)
		if err != nil {
			return nil, err
		}

		return allowedRes{Relationships: decls}, nil
	}
}

func listModelsEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		ms, err := svc.Models(ctx)
		if err != nil {
			return nil, err
		}

		return modelsRes{Total: len(ms), Models: ms}, nil
	}
}

func viewModelEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(modelReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		m, err := svc.Model(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return modelRes{Model: m}, nil
	}
}

func modelDocumentEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(modelReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		md, err := svc.ModelDocument(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return modelDocumentRes{ModelData: md}, nil
	}
}

func uploadModelsEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(uploadModelsReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		saved, err := svc.UploadModels(ctx, req.docs)
		if err != nil {
			return nil, err
		}

		return uploadRes{Models: saved}, nil
	}
}

func deleteModelEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(modelReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteModel(ctx, req.id); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}

func deleteAllModelsEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		ids, err := svc.DeleteAllModels(ctx)
		if err != nil {
			return nil, err
		}

		return idsRes{IDs: ids}, nil
	}
}

func modelOrderEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(modelOrderReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		ids, err := svc.ModelOrder(ctx, req.ids)
		if err != nil {
			return nil, err
		}

		return idsRes{IDs: ids}, nil
	}
}

func clearCacheEndpoint(svc explorer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		if err := svc.ClearCache(ctx); err != nil {
			return nil, err
		}

		return emptyRes{}, nil
	}
}
