// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package sdk

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

const (
	queryEndpoint = "query"
	twinsEndpoint = "digitaltwins"
)

type queryReq struct {
	Query             string `json:"query"`
	ContinuationToken string `json:"continuationToken,omitempty"`
}

func (s *store) QueryTwins(ctx context.Context, query, continuationToken string) (twins.QueryPage, error) {
	data, err := json.Marshal(queryReq{Query: query, ContinuationToken: continuationToken})
	if err != nil {
		return twins.QueryPage{}, errors.NewSDKError(err)
	}

	_, body, sdkerr := s.processRequest(ctx, http.MethodPost, s.endpoint(nil, queryEndpoint), data, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.QueryPage{}, sdkerr
	}

	var page twins.QueryPage
	if err := json.Unmarshal(body, &page); err != nil {
		return twins.QueryPage{}, errors.NewSDKError(err)
	}

	return page, nil
}

func (s *store) Twin(ctx context.Context, id string) (twins.RawTwin, error) {
	_, body, sdkerr := s.processRequest(ctx, http.MethodGet, s.endpoint(nil, twinsEndpoint, id), nil, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.RawTwin{}, sdkerr
	}

	var tw twins.RawTwin
	if err := json.Unmarshal(body, &tw); err != nil {
		return twins.RawTwin{}, errors.NewSDKError(err)
	}

	return tw, nil
}

func (s *store) AddTwin(ctx context.Context, twin twins.RawTwin) (twins.RawTwin, error) {
	data, err := json.Marshal(twin)
	if err != nil {
		return twins.RawTwin{}, errors.NewSDKError(err)
	}

	_, body, sdkerr := s.processRequest(ctx, http.MethodPut, s.endpoint(nil, twinsEndpoint, twin.ID), data, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.RawTwin{}, sdkerr
	}

	var saved twins.RawTwin
	if err := json.Unmarshal(body, &saved); err != nil {
		return twins.RawTwin{}, errors.NewSDKError(err)
	}

	return saved, nil
}

func (s *store) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) error {
	data, err := json.Marshal(patches)
	if err != nil {
		return errors.NewSDKError(err)
	}

	headers := map[string]string{"Content-Type": CTJSONPatch}
	_, _, sdkerr := s.processRequest(ctx, http.MethodPatch, s.endpoint(nil, twinsEndpoint, id), data, headers, http.StatusNoContent)
	if sdkerr != nil {
		return sdkerr
	}

	return nil
}

func (s *store) DeleteTwin(ctx context.Context, id string) error {
	_, _, sdkerr := s.processRequest(ctx, http.MethodDelete, s.endpoint(nil, twinsEndpoint, id), nil, nil, http.StatusNoContent)
	if sdkerr != nil {
		return sdkerr
	}

	return nil
}
