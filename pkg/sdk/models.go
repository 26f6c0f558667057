// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

const (
	modelsEndpoint = "models"
	includeDefsKey = "includeModelDefinition"
)

func (s *store) ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (twins.ModelsPage, error) {
	query := url.Values{}
	query.Set(includeDefsKey, strconv.FormatBool(includeDefinitions))

	var page twins.ModelsPage
	if err := s.page(ctx, s.endpoint(query, modelsEndpoint), nextLink, &page); err != nil {
		return twins.ModelsPage{}, err
	}

	return page, nil
}

func (s *store) Model(ctx context.Context, id string) (twins.ModelData, error) {
	query := url.Values{}
	query.Set(includeDefsKey, "true")

	_, body, sdkerr := s.processRequest(ctx, http.MethodGet, s.endpoint(query, modelsEndpoint, id), nil, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.ModelData{}, sdkerr
	}

	var md twins.ModelData
	if err := json.Unmarshal(body, &md); err != nil {
		return twins.ModelData{}, errors.NewSDKError(err)
	}

	return md, nil
}

func (s *store) AddModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, errors.NewSDKError(err)
	}

	_, body, sdkerr := s.processRequest(ctx, http.MethodPost, s.endpoint(nil, modelsEndpoint), data, nil, http.StatusCreated)
	if sdkerr != nil {
		return nil, sdkerr
	}

	var saved []twins.ModelData
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, errors.NewSDKError(err)
	}

	return saved, nil
}

func (s *store) DeleteModel(ctx context.Context, id string) error {
	_, _, sdkerr := s.processRequest(ctx, http.MethodDelete, s.endpoint(nil, modelsEndpoint, id), nil, nil, http.StatusNoContent)
	if sdkerr != nil {
		return sdkerr
	}

	return nil
}
