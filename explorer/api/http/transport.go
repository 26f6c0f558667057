// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/internal/api"
	"github.com/absmach/twinexplorer/internal/apiutil"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	twinIDKey  = "twinID"
	relIDKey   = "relID"
	modelIDKey = "modelID"
)

// MakeHandler returns a HTTP handler for the explorer API endpoints.
func MakeHandler(svc explorer.Service, logger *slog.Logger, instanceID string) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux := chi.NewRouter()

	mux.Route("/graph", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			viewGraphEndpoint(svc),
			decodeEmpty,
			api.EncodeResponse,
			opts...,
		), "view_graph").ServeHTTP)

		r.Post("/load", otelhttp.NewHandler(kithttp.NewServer(
			loadGraphEndpoint(svc),
			decodeLoadGraph,
			api.EncodeResponse,
			opts...,
		), "load_graph").ServeHTTP)

		r.Post("/expand", otelhttp.NewHandler(kithttp.NewServer(
			expandEndpoint(svc),
			decodeExpand,
			api.EncodeResponse,
			opts...,
		), "expand_graph").ServeHTTP)

		r.Post("/cancel", otelhttp.NewHandler(kithttp.NewServer(
			cancelEndpoint(svc),
			decodeEmpty,
			api.EncodeResponse,
			opts...,
		), "cancel_load").ServeHTTP)

		r.Put("/selection", otelhttp.NewHandler(kithttp.NewServer(
			selectEndpoint(svc),
			decodeSelect,
			api.EncodeResponse,
			opts...,
		), "select_twin").ServeHTTP)

		r.Put("/highlight", otelhttp.NewHandler(kithttp.NewServer(
			highlightEndpoint(svc),
			decodeHighlight,
			api.EncodeResponse,
			opts...,
		), "highlight_twins").ServeHTTP)

		r.Put("/filter", otelhttp.NewHandler(kithttp.NewServer(
			filterEndpoint(svc),
			decodeFilter,
			api.EncodeResponse,
			opts...,
		), "set_filter").ServeHTTP)
	})

	mux.Route("/twins", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createTwinEndpoint(svc),
			decodeCreateTwin,
			api.EncodeResponse,
			opts...,
		), "create_twin").ServeHTTP)

		r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
			deleteTwinsEndpoint(svc),
			decodeDeleteTwins,
			api.EncodeResponse,
			opts...,
		), "delete_twins").ServeHTTP)

		r.Route("/{twinID}", func(r chi.Router) {
			r.Patch("/", otelhttp.NewHandler(kithttp.NewServer(
				updateTwinEndpoint(svc),
				decodeUpdateTwin,
				api.EncodeResponse,
				opts...,
			), "update_twin").ServeHTTP)

			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deleteTwinsEndpoint(svc),
				decodeDeleteTwin,
				api.EncodeResponse,
				opts...,
			), "delete_twin").ServeHTTP)

			r.Post("/relationships", otelhttp.NewHandler(kithttp.NewServer(
				createRelationshipEndpoint(svc),
				decodeCreateRelationship,
				api.EncodeResponse,
				opts...,
			), "create_relationship").ServeHTTP)

			r.Get("/relationships/allowed", otelhttp.NewHandler(kithttp.NewServer(
				allowedRelationshipsEndpoint(svc),
				decodeAllowedRelationships,
				api.EncodeResponse,
				opts...,
			), "allowed_relationships").ServeHTTP)

			r.Get("/relationships/{relID}", otelhttp.NewHandler(kithttp.NewServer(
				viewRelationshipEndpoint(svc),
				decodeRelationship,
				api.EncodeResponse,
				opts...,
			), "view_relationship").ServeHTTP)

			r.Delete("/relationships/{relID}", otelhttp.NewHandler(kithttp.NewServer(
				deleteRelationshipEndpoint(svc),
				decodeRelationship,
				api.EncodeResponse,
				opts...,
			), "delete_relationship").ServeHTTP)
		})
	})

	mux.Route("/models", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listModelsEndpoint(svc),
			decodeEmpty,
			api.EncodeResponse,
			opts...,
		), "list_models").ServeHTTP)

		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			uploadModelsEndpoint(svc),
			decodeUploadModels,
			api.EncodeResponse,
			opts...,
		), "upload_models").ServeHTTP)

		r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
			deleteAllModelsEndpoint(svc),
			decodeEmpty,
			api.EncodeResponse,
			opts...,
		), "delete_all_models").ServeHTTP)

		r.Get("/order", otelhttp.NewHandler(kithttp.NewServer(
			modelOrderEndpoint(svc),
			decodeModelOrder,
			api.EncodeResponse,
			opts...,
		), "model_order").ServeHTTP)

		r.Get("/{modelID}", otelhttp.NewHandler(kithttp.NewServer(
			viewModelEndpoint(svc),
			decodeModel,
			api.EncodeResponse,
			opts...,
		), "view_model").ServeHTTP)

		r.Get("/{modelID}/document", otelhttp.NewHandler(kithttp.NewServer(
			modelDocumentEndpoint(svc),
			decodeModel,
			api.EncodeResponse,
			opts...,
		), "view_model_document").ServeHTTP)

		r.Get("/{modelID}/template", otelhttp.NewHandler(kithttp.NewServer(
			twinTemplateEndpoint(svc),
			decodeModel,
			api.EncodeResponse,
			opts...,
		), "twin_template").ServeHTTP)

		r.Delete("/{modelID}", otelhttp.NewHandler(kithttp.NewServer(
			deleteModelEndpoint(svc),
			decodeModel,
			api.EncodeResponse,
			opts...,
		), "delete_model").ServeHTTP)
	})

	mux.Post("/cache/clear", otelhttp.NewHandler(kithttp.NewServer(
		clearCacheEndpoint(svc),
		decodeEmpty,
		api.EncodeResponse,
		opts...,
	), "clear_cache").ServeHTTP)

	mux.Get("/health", twinexplorer.Health("explorer", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmpty(_ context.Context, _ *http.Request) (interface{}, error) {
	return emptyReq{}, nil
}

// decodeLoadOptions reads the load options shared by graph loads and
// expansions.
func decodeLoadOptions(r *http.Request) (graph.LoadOptions, error) {
	d, err := apiutil.ReadStringQuery(r, api.DirKey, "")
	if err != nil {
		return graph.LoadOptions{}, err
	}
	dir, err := twins.ParseDirection(d)
	if err != nil {
		return graph.LoadOptions{}, errors.Wrap(apiutil.ErrInvalidDirection, err)
	}
	levels, err := apiutil.ReadNumQuery[uint64](r, api.LevelsKey, api.DefLevels)
	if err != nil {
		return graph.LoadOptions{}, err
	}
	eager, err := apiutil.ReadBoolQuery(r, api.EagerKey, false)
	if err != nil {
		return graph.LoadOptions{}, err
	}
	clearExisting, err := apiutil.ReadBoolQuery(r, api.ClearKey, false)
	if err != nil {
		return graph.LoadOptions{}, err
	}
	parallel, err := apiutil.ReadNumQuery[uint64](r, api.ParallelKey, api.DefParallel)
	if err != nil {
		return graph.LoadOptions{}, err
	}
	refresh, err := apiutil.ReadNumQuery[uint64](r, api.RefreshKey, 0)
	if err != nil {
		return graph.LoadOptions{}, err
	}

	return graph.LoadOptions{
		ClearExisting:   clearExisting,
		ExpansionLevels: int(levels),
		Direction:       dir,
		EagerLoading:    eager,
		Concurrency:     int(parallel),
		RefreshEvery:    int(refresh),
	}, nil
}

func decodeLoadGraph(_ context.Context, r *http.Request) (interface{}, error) {
	opts, err := decodeLoadOptions(r)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	req := loadGraphReq{opts: opts}
	if r.ContentLength != 0 {
		if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
			return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
		}
	}
	if req.Query == "" {
		req.Query = api.DefQuery
	}

	return req, nil
}

func decodeExpand(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
	opts, err := decodeLoadOptions(r)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	req := expandReq{opts: opts}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeSelect(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeHighlight(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req highlightReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeFilter(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req filterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeCreateTwin(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req createTwinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeUpdateTwin(_ context.Context, r *http.Request) (interface{}, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.Contains(ct, api.PatchContentType) && !strings.Contains(ct, api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := updateTwinReq{id: param(r, twinIDKey)}
	if err := json.NewDecoder(r.Body).Decode(&req.patches); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeDeleteTwin(_ context.Context, r *http.Request) (interface{}, error) {
	return deleteTwinsReq{ids: []string{param(r, twinIDKey)}}, nil
}

func decodeDeleteTwins(_ context.Context, r *http.Request) (interface{}, error) {
	return deleteTwinsReq{ids: apiutil.ReadListQuery(r, api.IDKey)}, nil
}

func decodeCreateRelationship(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := createRelationshipReq{sourceID: param(r, twinIDKey)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeRelationship(_ context.Context, r *http.Request) (interface{}, error) {
	return relationshipReq{
		sourceID: param(r, twinIDKey),
		id:       param(r, relIDKey),
	}, nil
}

func decodeAllowedRelationships(_ context.Context, r *http.Request) (interface{}, error) {
	target, err := apiutil.ReadStringQuery(r, api.TargetKey, "")
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	return allowedRelationshipsReq{
		sourceID: param(r, twinIDKey),
		targetID: target,
	}, nil
}

func decodeUploadModels(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Wrap(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req uploadModelsReq
	if err := json.NewDecoder(r.Body).Decode(&req.docs); err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, errors.Wrap(errors.ErrMalformedEntity, err))
	}

	return req, nil
}

func decodeModel(_ context.Context, r *http.Request) (interface{}, error) {
	return modelReq{id: param(r, modelIDKey)}, nil
}

func decodeModelOrder(_ context.Context, r *http.Request) (interface{}, error) {
	return modelOrderReq{ids: apiutil.ReadListQuery(r, api.IDKey)}, nil
}

// param returns the unescaped path parameter. Model ids carry characters
// such as ';' that clients escape.
func param(r *http.Request, key string) string {
	val := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(val); err == nil {
		return unescaped
	}

	return val
}
