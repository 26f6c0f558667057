// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"strings"

	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/internal/api"
	"github.com/absmach/twinexplorer/internal/apiutil"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

type emptyReq struct{}

func validateLoad(opts graph.LoadOptions) error {
	if opts.ExpansionLevels < 0 || uint64(opts.ExpansionLevels) > api.MaxLevels {
		return apiutil.ErrInvalidLevel
	}
	if opts.Concurrency < 0 || uint64(opts.Concurrency) > api.MaxParallel {
		return apiutil.ErrInvalidQueryParams
	}

	return nil
}

type loadGraphReq struct {
	opts  graph.LoadOptions
	Query string `json:"query"`
}

func (req loadGraphReq) validate() error {
	if strings.TrimSpace(req.Query) == "" {
		return apiutil.ErrMissingQuery
	}
	if len(req.Query) > api.MaxQuerySize {
		return errors.ErrMalformedEntity
	}

	return validateLoad(req.opts)
}

type expandReq struct {
	opts graph.LoadOptions
	IDs  []string `json:"ids"`
}

func (req expandReq) validate() error {
	if len(req.IDs) == 0 {
		return apiutil.ErrEmptyList
	}
	for _, id := range req.IDs {
		if id == "" {
			return apiutil.ErrMissingID
		}
	}

	return validateLoad(req.opts)
}

// selectReq clears the selection when ID is empty.
type selectReq struct {
	ID string `json:"id"`
}

func (req selectReq) validate() error {
	return nil
}

// highlightReq clears the highlight when IDs is empty.
type highlightReq struct {
	IDs []string `json:"ids"`
}

func (req highlightReq) validate() error {
	for _, id := range req.IDs {
		if id == "" {
			return apiutil.ErrMissingID
		}
	}

	return nil
}

type filterReq struct {
	Filter string `json:"filter"`
}

func (req filterReq) validate() error {
	if len(req.Filter) > api.MaxQuerySize {
		return errors.ErrMalformedEntity
	}

	return nil
}

type createTwinReq struct {
	ModelID    string         `json:"model_id"`
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (req createTwinReq) validate() error {
	if req.ModelID == "" {
		return apiutil.ErrMissingModelID
	}

	return nil
}

type updateTwinReq struct {
	id      string
	patches []twins.Patch
}

func (req updateTwinReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}
	if len(req.patches) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}

type deleteTwinsReq struct {
	ids []string
}

func (req deleteTwinsReq) validate() error {
	if len(req.ids) == 0 {
		return apiutil.ErrEmptyList
	}
	for _, id := range req.ids {
		if id == "" {
			return apiutil.ErrMissingID
		}
	}

	return nil
}

type createRelationshipReq struct {
	sourceID   string
	TargetID   string         `json:"target_id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (req createRelationshipReq) validate() error {
	if req.sourceID == "" || req.TargetID == "" {
		return apiutil.ErrMissingID
	}
	if req.Name == "" {
		return apiutil.ErrMissingName
	}

	return nil
}

type relationshipReq struct {
	sourceID string
	id       string
}

func (req relationshipReq) validate() error {
	if req.sourceID == "" || req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type allowedRelationshipsReq struct {
	sourceID string
	targetID string
}

func (req allowedRelationshipsReq) validate() error {
	if req.sourceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type uploadModelsReq struct {
	docs []json.RawMessage
}

func (req uploadModelsReq) validate() error {
	if len(req.docs) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}

type modelReq struct {
	id string
}

func (req modelReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingModelID
	}

	return nil
}

type modelOrderReq struct {
	ids []string
}

func (req modelOrderReq) validate() error {
	if len(req.ids) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}
