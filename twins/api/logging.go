// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/absmach/twinexplorer/twins"
)

var _ twins.Store = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	store  twins.Store
}

// LoggingMiddleware adds logging facilities to the twin store.
func LoggingMiddleware(store twins.Store, logger *slog.Logger) twins.Store {
	return &loggingMiddleware{logger, store}
}

func (lm *loggingMiddleware) log(begin time.Time, op string, err error, args ...any) {
	args = append([]any{slog.String("duration", time.Since(begin).String())}, args...)
	if err != nil {
		args = append(args, slog.Any("error", err))
		lm.logger.Warn(op+" failed to complete successfully", args...)
		return
	}
	lm.logger.Info(op+" completed successfully", args...)
}

func (lm *loggingMiddleware) QueryTwins(ctx context.Context, query, continuationToken string) (page twins.QueryPage, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Query twins", err,
			slog.Group("query",
				slog.String("text", query),
				slog.Bool("continued", continuationToken != ""),
				slog.Int("items", len(page.Items)),
			),
		)
	}(time.Now())

	return lm.store.QueryTwins(ctx, query, continuationToken)
}

func (lm *loggingMiddleware) ListRelationships(ctx context.Context, twinID, nextLink string) (page twins.RelationshipsPage, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "List relationships", err,
			slog.Group("page",
				slog.String("twin_id", twinID),
				slog.Bool("continued", nextLink != ""),
				slog.Int("items", len(page.Items)),
			),
		)
	}(time.Now())

	return lm.store.ListRelationships(ctx, twinID, nextLink)
}

func (lm *loggingMiddleware) ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (page twins.IncomingRelationshipsPage, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "List incoming relationships", err,
			slog.Group("page",
				slog.String("twin_id", twinID),
				slog.Bool("continued", nextLink != ""),
				slog.Int("items", len(page.Items)),
			),
		)
	}(time.Now())

	return lm.store.ListIncomingRelationships(ctx, twinID, nextLink)
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (page twins.ModelsPage, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "List models", err,
			slog.Group("page",
				slog.Bool("definitions", includeDefinitions),
				slog.Bool("continued", nextLink != ""),
				slog.Int("items", len(page.Items)),
			),
		)
	}(time.Now())

	return lm.store.ListModels(ctx, includeDefinitions, nextLink)
}

func (lm *loggingMiddleware) Twin(ctx context.Context, id string) (tw twins.RawTwin, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View twin", err, slog.String("twin_id", id))
	}(time.Now())

	return lm.store.Twin(ctx, id)
}

func (lm *loggingMiddleware) AddTwin(ctx context.Context, twin twins.RawTwin) (tw twins.RawTwin, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Add twin", err,
			slog.Group("twin",
				slog.String("id", twin.ID),
				slog.String("model_id", twin.ModelID),
			),
		)
	}(time.Now())

	return lm.store.AddTwin(ctx, twin)
}

func (lm *loggingMiddleware) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Update twin", err,
			slog.String("twin_id", id),
			slog.Int("operations", len(patches)),
		)
	}(time.Now())

	return lm.store.UpdateTwin(ctx, id, patches)
}

func (lm *loggingMiddleware) DeleteTwin(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete twin", err, slog.String("twin_id", id))
	}(time.Now())

	return lm.store.DeleteTwin(ctx, id)
}

func (lm *loggingMiddleware) Relationship(ctx context.Context, sourceID, id string) (rel twins.RawRelationship, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View relationship", err,
			slog.Group("relationship",
				slog.String("id", id),
				slog.String("source_id", sourceID),
			),
		)
	}(time.Now())

	return lm.store.Relationship(ctx, sourceID, id)
}

func (lm *loggingMiddleware) AddRelationship(ctx context.Context, rel twins.RawRelationship) (saved twins.RawRelationship, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Add relationship", err,
			slog.Group("relationship",
				slog.String("id", rel.ID),
				slog.String("source_id", rel.SourceID),
				slog.String("target_id", rel.TargetID),
				slog.String("name", rel.Name),
			),
		)
	}(time.Now())

	return lm.store.AddRelationship(ctx, rel)
}

func (lm *loggingMiddleware) DeleteRelationship(ctx context.Context, sourceID, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete relationship", err,
			slog.Group("relationship",
				slog.String("id", id),
				slog.String("source_id", sourceID),
			),
		)
	}(time.Now())

	return lm.store.DeleteRelationship(ctx, sourceID, id)
}

func (lm *loggingMiddleware) Model(ctx context.Context, id string) (md twins.ModelData, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "View model", err, slog.String("model_id", id))
	}(time.Now())

	return lm.store.Model(ctx, id)
}

func (lm *loggingMiddleware) AddModels(ctx context.Context, docs []json.RawMessage) (saved []twins.ModelData, err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Add models", err,
			slog.Int("documents", len(docs)),
			slog.Int("saved", len(saved)),
		)
	}(time.Now())

	return lm.store.AddModels(ctx, docs)
}

func (lm *loggingMiddleware) DeleteModel(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		lm.log(begin, "Delete model", err, slog.String("model_id", id))
	}(time.Now())

	return lm.store.DeleteModel(ctx, id)
}
