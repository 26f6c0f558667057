// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/internal/apiutil"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

const (
	QueryKey     = "query"
	DirKey       = "direction"
	LevelsKey    = "levels"
	EagerKey     = "eager"
	ClearKey     = "clear"
	ParallelKey  = "concurrency"
	RefreshKey   = "refresh_every"
	SourceKey    = "source"
	TargetKey    = "target"
	IDKey        = "id"
	DefLevels    = uint64(graph.DefaultExpansionLevels)
	MaxLevels    = uint64(10)
	DefParallel  = uint64(6)
	MaxParallel  = uint64(64)
	DefQuery     = "SELECT * FROM DIGITALTWINS"
	MaxQuerySize = 8192

	// ContentType represents JSON content type.
	ContentType = "application/json"

	// PatchContentType represents JSON patch content type.
	PatchContentType = "application/json-patch+json"
)

// EncodeResponse encodes successful response.
func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(twinexplorer.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError encodes an error response.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	var wrapper error
	if errors.Contains(err, apiutil.ErrValidation) {
		wrapper, err = errors.Unwrap(err)
	}

	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Contains(err, errors.ErrAuthentication):
		err = unwrap(err)
		w.WriteHeader(http.StatusUnauthorized)

	case errors.Contains(err, errors.ErrNotFound),
		errors.Contains(err, models.ErrUnknownModel):
		err = unwrap(err)
		w.WriteHeader(http.StatusNotFound)

	case errors.Contains(err, errors.ErrConflict),
		errors.Contains(err, graph.ErrCanceled):
		err = unwrap(err)
		w.WriteHeader(http.StatusConflict)

	case errors.Contains(err, errors.ErrMalformedEntity),
		errors.Contains(err, errors.ErrViewEntity),
		errors.Contains(err, twins.ErrMalformedTwin),
		errors.Contains(err, twins.ErrMalformedRelationship),
		errors.Contains(err, models.ErrMalformedModel),
		errors.Contains(err, models.ErrCycle),
		errors.Contains(err, explorer.ErrRelationshipNotAllowed),
		errors.Contains(err, explorer.ErrEmptyModelSet),
		errors.Contains(err, apiutil.ErrMissingID),
		errors.Contains(err, apiutil.ErrMissingModelID),
		errors.Contains(err, apiutil.ErrMissingName),
		errors.Contains(err, apiutil.ErrMissingQuery),
		errors.Contains(err, apiutil.ErrEmptyList),
		errors.Contains(err, apiutil.ErrInvalidDirection),
		errors.Contains(err, apiutil.ErrInvalidLevel),
		errors.Contains(err, apiutil.ErrInvalidQueryParams),
		errors.Contains(err, apiutil.ErrValidation):
		err = unwrap(err)
		w.WriteHeader(http.StatusBadRequest)

	case errors.Contains(err, errors.ErrCreateEntity),
		errors.Contains(err, errors.ErrUpdateEntity),
		errors.Contains(err, errors.ErrRemoveEntity):
		err = unwrap(err)
		w.WriteHeader(http.StatusUnprocessableEntity)

	case errors.Contains(err, apiutil.ErrUnsupportedContentType):
		err = unwrap(err)
		w.WriteHeader(http.StatusUnsupportedMediaType)

	case errors.Contains(err, models.ErrNotLoaded):
		err = unwrap(err)
		w.WriteHeader(http.StatusServiceUnavailable)

	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if wrapper != nil {
		err = errors.Wrap(wrapper, err)
	}

	if errorVal, ok := err.(errors.Error); ok {
		if err := json.NewEncoder(w).Encode(errorVal); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func unwrap(err error) error {
	wrapper, err := errors.Unwrap(err)
	if wrapper != nil {
		return wrapper
	}
	return err
}
