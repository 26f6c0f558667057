// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

var _ explorer.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    explorer.Service
}

// LoggingMiddleware adds logging facilities to the explorer service.
func LoggingMiddleware(svc explorer.Service, logger *slog.Logger) explorer.Service {
	return &loggingMiddleware{logger, svc}
}

func (lm *loggingMiddleware) log(begin time.Time, op string, err error, args ...any) {
	args = append([]any{slog.String("duration", time.Since(begin).String())}, args...)
	switch {
	case err == nil:
		lm.logger.Info(op+" completed successfully", args...)
	case errors.Contains(err, graph.ErrCanceled):
		lm.logger.Info(op+" canceled", args...)
	default:
		args = append(args, slog.Any("error", err))
		lm.logger.Warn(op+" failed to complete successfully", args...)
	}
}

func loadGroup(opts graph.LoadOptions, res graph.LoadResult) slog.Attr {
	return slog.Group("load",
		slog.String("direction", opts.Direction.String()),
		slog.Int("expansion_levels", opts.ExpansionLevels),
		slog.Bool("eager", opts.EagerLoading),
		slog.Bool("clear_existing", opts.ClearExisting),
		slog.Int("twins", res.Twins),
		slog.Int("relationships", res.Relationships),
		slog.Int("failed", len(res.Failed)),
	)
}

func (lm *loggingMiddleware) LoadGraph(ctx context.Context, query string, opts graph.LoadOptions) (res graph.LoadResult, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Load graph", err, slog.String("query", query), loadGroup(opts, res))
	}(time.Now())

	return lm.svc.LoadGraph(ctx, query, opts)
}

func (lm *loggingMiddleware) Expand(ctx context.Context, ids []string, opts graph.LoadOptions) (res graph.LoadResult, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Expand graph", err, slog.Any("twin_ids", ids), loadGroup(opts, res))
	}(time.Now())

	return lm.svc.Expand(ctx, ids, opts)
}

func (lm *loggingMiddleware) Cancel(ctx context.Context) {
	defer func(begin time.Time) {
		lm.log(begin, "Cancel loads", nil)
	}(time.Now())

	lm.svc.Cancel(ctx)
}

func (lm *loggingMiddleware) Graph(ctx context.Context) graph.Snapshot {
	return lm.svc.Graph(ctx)
}

func (lm *loggingMiddleware) Select(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Select twin", err, slog.String("twin_id", id))
	}(time.Now())

	return lm.svc.Select(ctx, id)
}

func (lm *loggingMiddleware) Highlight(ctx context.Context, ids []string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Highlight twins", err, slog.Any("twin_ids", ids))
	}(time.Now())

	return lm.svc.Highlight(ctx, ids)
}

func (lm *loggingMiddleware) SetFilter(ctx context.Context, filter string) {
	defer func(begin time.Time) {
		lm.log(begin, "Set graph filter", nil, slog.String("filter", filter))
	}(time.Now())

	lm.svc.SetFilter(ctx, filter)
}

func (lm *loggingMiddleware) CreateTwin(ctx context.Context, modelID, id string, props map[string]any) (tw twins.Twin, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Create twin", err,
			slog.Group("twin",
				slog.String("id", tw.ID),
				slog.String("model_id", modelID),
			),
		)
	}(time.Now())

	return lm.svc.CreateTwin(ctx, modelID, id, props)
}

func (lm *loggingMiddleware) TwinTemplate(ctx context.Context, modelID string) (props map[string]any, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View twin template", err, slog.String("model_id", modelID))
	}(time.Now())

	return lm.svc.TwinTemplate(ctx, modelID)
}

func (lm *loggingMiddleware) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) (tw twins.Twin, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Update twin", err,
			slog.Group("twin",
				slog.String("id", id),
				slog.Int("patches", len(patches)),
			),
		)
	}(time.Now())

	return lm.svc.UpdateTwin(ctx, id, patches)
}

func (lm *loggingMiddleware) DeleteTwins(ctx context.Context, ids []string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete twins", err, slog.Any("twin_ids", ids))
	}(time.Now())

	return lm.svc.DeleteTwins(ctx, ids)
}

func (lm *loggingMiddleware) CreateRelationship(ctx context.Context, sourceID, targetID, name string, props map[string]any) (rel twins.Relationship, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Create relationship", err,
			slog.Group("relationship",
				slog.String("id", rel.ID),
				slog.String("source_id", sourceID),
				slog.String("target_id", targetID),
				slog.String("name", name),
			),
		)
	}(time.Now())

	return lm.svc.CreateRelationship(ctx, sourceID, targetID, name, props)
}

func (lm *loggingMiddleware) DeleteRelationship(ctx context.Context, sourceID, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, fmt.Sprintf("Delete relationship %s", id), err, slog.String("source_id", sourceID))
	}(time.Now())

	return lm.svc.DeleteRelationship(ctx, sourceID, id)
}

func (lm *loggingMiddleware) Relationship(ctx context.Context, sourceID, id string) (rel twins.Relationship, err error) {
	defer func(begin time.Time) {
		lm.log(begin, fmt.Sprintf("View relationship %s", id), err,
			slog.String("source_id", sourceID),
			slog.String("target_id", rel.TargetID),
		)
	}(time.Now())

	return lm.svc.Relationship(ctx, sourceID, id)
}

func (lm *loggingMiddleware) AllowedRelationships(ctx context.Context, sourceID, targetID string) (decls []models.RelationshipDecl, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "List allowed relationships", err,
			slog.String("source_id", sourceID),
			slog.String("target_id", targetID),
			slog.Int("count", len(decls)),
		)
	}(time.Now())

	return lm.svc.AllowedRelationships(ctx, sourceID, targetID)
}

func (lm *loggingMiddleware) Models(ctx context.Context) (ms []models.Model, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "List models", err, slog.Int("count", len(ms)))
	}(time.Now())

	return lm.svc.Models(ctx)
}

func (lm *loggingMiddleware) Model(ctx context.Context, id string) (m models.Model, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View model", err, slog.String("model_id", id))
	}(time.Now())

	return lm.svc.Model(ctx, id)
}

func (lm *loggingMiddleware) ModelDocument(ctx context.Context, id string) (md twins.ModelData, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View model document", err, slog.String("model_id", id))
	}(time.Now())

	return lm.svc.ModelDocument(ctx, id)
}

func (lm *loggingMiddleware) UploadModels(ctx context.Context, docs []json.RawMessage) (uploaded []twins.ModelData, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Upload models", err,
			slog.Int("documents", len(docs)),
			slog.Int("uploaded", len(uploaded)),
		)
	}(time.Now())

	return lm.svc.UploadModels(ctx, docs)
}

func (lm *loggingMiddleware) DeleteModel(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete model", err, slog.String("model_id", id))
	}(time.Now())

	return lm.svc.DeleteModel(ctx, id)
}

func (lm *loggingMiddleware) DeleteAllModels(ctx context.Context) (deleted []string, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete all models", err, slog.Int("deleted", len(deleted)))
	}(time.Now())

	return lm.svc.DeleteAllModels(ctx)
}

func (lm *loggingMiddleware) ModelOrder(ctx context.Context, ids []string) (order []string, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Order models", err, slog.Int("models", len(ids)))
	}(time.Now())

	return lm.svc.ModelOrder(ctx, ids)
}

func (lm *loggingMiddleware) ClearCache(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Clear cache", err)
	}(time.Now())

	return lm.svc.ClearCache(ctx)
}
