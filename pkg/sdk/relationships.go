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
	relationshipsEndpoint         = "relationships"
	incomingRelationshipsEndpoint = "incomingrelationships"
)

func (s *store) page(ctx context.Context, first, nextLink string, v any) error {
	reqURL := first
	if nextLink != "" {
		link, err := s.follow(nextLink)
		if err != nil {
			return err
		}
		reqURL = link
	}

	_, body, sdkerr := s.processRequest(ctx, http.MethodGet, reqURL, nil, nil, http.StatusOK)
	if sdkerr != nil {
		return sdkerr
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewSDKError(err)
	}

	return nil
}

func (s *store) ListRelationships(ctx context.Context, twinID, nextLink string) (twins.RelationshipsPage, error) {
	var page twins.RelationshipsPage
	if err := s.page(ctx, s.endpoint(nil, twinsEndpoint, twinID, relationshipsEndpoint), nextLink, &page); err != nil {
		return twins.RelationshipsPage{}, err
	}

	return page, nil
}

func (s *store) ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (twins.IncomingRelationshipsPage, error) {
	var page twins.IncomingRelationshipsPage
	if err := s.page(ctx, s.endpoint(nil, twinsEndpoint, twinID, incomingRelationshipsEndpoint), nextLink, &page); err != nil {
		return twins.IncomingRelationshipsPage{}, err
	}

	return page, nil
}

func (s *store) Relationship(ctx context.Context, sourceID, id string) (twins.RawRelationship, error) {
	_, body, sdkerr := s.processRequest(ctx, http.MethodGet, s.endpoint(nil, twinsEndpoint, sourceID, relationshipsEndpoint, id), nil, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.RawRelationship{}, sdkerr
	}

	var rel twins.RawRelationship
	if err := json.Unmarshal(body, &rel); err != nil {
		return twins.RawRelationship{}, errors.NewSDKError(err)
	}

	return rel, nil
}

func (s *store) AddRelationship(ctx context.Context, rel twins.RawRelationship) (twins.RawRelationship, error) {
	data, err := json.Marshal(rel)
	if err != nil {
		return twins.RawRelationship{}, errors.NewSDKError(err)
	}

	_, body, sdkerr := s.processRequest(ctx, http.MethodPut, s.endpoint(nil, twinsEndpoint, rel.SourceID, relationshipsEndpoint, rel.ID), data, nil, http.StatusOK)
	if sdkerr != nil {
		return twins.RawRelationship{}, sdkerr
	}

	var saved twins.RawRelationship
	if err := json.Unmarshal(body, &saved); err != nil {
		return twins.RawRelationship{}, errors.NewSDKError(err)
	}

	return saved, nil
}

func (s *store) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	_, _, sdkerr := s.processRequest(ctx, http.MethodDelete, s.endpoint(nil, twinsEndpoint, sourceID, relationshipsEndpoint, id), nil, nil, http.StatusNoContent)
	if sdkerr != nil {
		return sdkerr
	}

	return nil
}
