// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sdk_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
	"github.com/go-chi/chi/v5"
)

const (
	token      = "token"
	apiVersion = "2020-10-31"
)

// newStoreServer exposes an in-memory store through the remote store REST API.
func newStoreServer(store *mocks.Store) *httptest.Server {
	r := chi.NewRouter()
	var base string

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer "+token {
				encodeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			if req.URL.Query().Get("api-version") != apiVersion {
				encodeError(w, http.StatusBadRequest, "BadRequest", "api-version missing")
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/query", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query             string `json:"query"`
			ContinuationToken string `json:"continuationToken"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		page, err := store.QueryTwins(req.Context(), body.Query, body.ContinuationToken)
		respond(w, http.StatusOK, page, err)
	})

	r.Get("/digitaltwins/{id}", func(w http.ResponseWriter, req *http.Request) {
		tw, err := store.Twin(req.Context(), param(req, "id"))
		respond(w, http.StatusOK, tw, err)
	})

	r.Put("/digitaltwins/{id}", func(w http.ResponseWriter, req *http.Request) {
		var tw twins.RawTwin
		if err := json.NewDecoder(req.Body).Decode(&tw); err != nil {
			encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		saved, err := store.AddTwin(req.Context(), tw)
		respond(w, http.StatusOK, saved, err)
	})

	r.Patch("/digitaltwins/{id}", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Content-Type") != "application/json-patch+json" {
			encodeError(w, http.StatusUnsupportedMediaType, "UnsupportedMediaType", "expected json patch")
			return
		}
		var patches []twins.Patch
		if err := json.NewDecoder(req.Body).Decode(&patches); err != nil {
			encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		err := store.UpdateTwin(req.Context(), param(req, "id"), patches)
		respond(w, http.StatusNoContent, nil, err)
	})

	r.Delete("/digitaltwins/{id}", func(w http.ResponseWriter, req *http.Request) {
		err := store.DeleteTwin(req.Context(), param(req, "id"))
		respond(w, http.StatusNoContent, nil, err)
	})

	r.Get("/digitaltwins/{id}/relationships", func(w http.ResponseWriter, req *http.Request) {
		id := param(req, "id")
		page, err := store.ListRelationships(req.Context(), id, req.URL.Query().Get("continuation"))
		if page.NextLink != "" {
			page.NextLink = nextLink(base, "/digitaltwins/"+url.PathEscape(id)+"/relationships", page.NextLink)
		}
		respond(w, http.StatusOK, page, err)
	})

	r.Get("/digitaltwins/{id}/incomingrelationships", func(w http.ResponseWriter, req *http.Request) {
		id := param(req, "id")
		page, err := store.ListIncomingRelationships(req.Context(), id, req.URL.Query().Get("continuation"))
		if page.NextLink != "" {
			page.NextLink = nextLink(base, "/digitaltwins/"+url.PathEscape(id)+"/incomingrelationships", page.NextLink)
		}
		respond(w, http.StatusOK, page, err)
	})

	r.Get("/digitaltwins/{id}/relationships/{rel}", func(w http.ResponseWriter, req *http.Request) {
		rel, err := store.Relationship(req.Context(), param(req, "id"), param(req, "rel"))
		respond(w, http.StatusOK, rel, err)
	})

	r.Put("/digitaltwins/{id}/relationships/{rel}", func(w http.ResponseWriter, req *http.Request) {
		var rel twins.RawRelationship
		if err := json.NewDecoder(req.Body).Decode(&rel); err != nil {
			encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		saved, err := store.AddRelationship(req.Context(), rel)
		respond(w, http.StatusOK, saved, err)
	})

	r.Delete("/digitaltwins/{id}/relationships/{rel}", func(w http.ResponseWriter, req *http.Request) {
		err := store.DeleteRelationship(req.Context(), param(req, "id"), param(req, "rel"))
		respond(w, http.StatusNoContent, nil, err)
	})

	r.Get("/models", func(w http.ResponseWriter, req *http.Request) {
		defs := req.URL.Query().Get("includeModelDefinition") == "true"
		page, err := store.ListModels(req.Context(), defs, req.URL.Query().Get("continuation"))
		if page.NextLink != "" {
			page.NextLink = nextLink(base, "/models", page.NextLink) + "&includeModelDefinition=" + fmt.Sprint(defs)
		}
		respond(w, http.StatusOK, page, err)
	})

	r.Get("/models/{id}", func(w http.ResponseWriter, req *http.Request) {
		md, err := store.Model(req.Context(), param(req, "id"))
		respond(w, http.StatusOK, md, err)
	})

	r.Post("/models", func(w http.ResponseWriter, req *http.Request) {
		var docs []json.RawMessage
		if err := json.NewDecoder(req.Body).Decode(&docs); err != nil {
			encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		saved, err := store.AddModels(req.Context(), docs)
		respond(w, http.StatusCreated, saved, err)
	})

	r.Delete("/models/{id}", func(w http.ResponseWriter, req *http.Request) {
		err := store.DeleteModel(req.Context(), param(req, "id"))
		respond(w, http.StatusNoContent, nil, err)
	})

	ts := httptest.NewServer(r)
	base = ts.URL

	return ts
}

func param(req *http.Request, key string) string {
	v := chi.URLParam(req, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func nextLink(base, path, continuation string) string {
	return fmt.Sprintf("%s%s?continuation=%s&api-version=%s", base, path, url.QueryEscape(continuation), apiVersion)
}

func respond(w http.ResponseWriter, code int, body any, err error) {
	switch {
	case err == nil:
	case errors.Contains(err, errors.ErrNotFound):
		encodeError(w, http.StatusNotFound, "NotFound", err.Error())
		return
	case errors.Contains(err, errors.ErrConflict):
		encodeError(w, http.StatusConflict, "Conflict", err.Error())
		return
	case errors.Contains(err, errors.ErrMalformedEntity):
		encodeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	default:
		encodeError(w, http.StatusInternalServerError, "InternalServerError", err.Error())
		return
	}

	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func encodeError(w http.ResponseWriter, code int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": kind, "message": strings.TrimSpace(msg)},
	})
}

func seed(store *mocks.Store) {
	tw := func(id string) twins.Twin {
		return twins.Twin{ID: id, ModelID: "dtmi:example:Room;1", Properties: map[string]any{"name": id}}
	}
	rel := func(id, src, dst, name string) twins.Relationship {
		return twins.Relationship{ID: id, SourceID: src, TargetID: dst, Name: name}
	}
	store.Seed(
		[]twins.Twin{tw("a"), tw("b"), tw("c")},
		[]twins.Relationship{
			rel("r1", "a", "b", "contains"),
			rel("r2", "a", "c", "contains"),
			rel("r3", "b", "c", "adjacentTo"),
		},
	)
}
