// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"context"
	"encoding/json"

	"github.com/absmach/twinexplorer/pkg/errors"
)

var (
	// ErrQueryTwins indicates a failure to fetch a page of twin query results.
	ErrQueryTwins = errors.New("failed to query twins")

	// ErrListRelationships indicates a failure to fetch a relationships page.
	ErrListRelationships = errors.New("failed to list relationships")

	// ErrListModels indicates a failure to fetch a model catalog page.
	ErrListModels = errors.New("failed to list models")
)

// Client reads paged resources from the twin store and forwards mutations
// to it.
type Client interface {
	// QueryTwinsPaged runs query and calls onPage with every page of twins,
	// following continuation tokens until the store returns none.
	QueryTwinsPaged(ctx context.Context, query string, onPage func([]Twin) error) error

	// QueryRelationshipsPaged calls onPage with every page of relationships
	// of twinID in the given direction. Incoming relationships are
	// normalized so their target is twinID.
	QueryRelationshipsPaged(ctx context.Context, twinID string, dir Direction, onPage func(RelationshipPage) error) error

	// QueryModelsPaged calls onPage with every page of the model catalog.
	QueryModelsPaged(ctx context.Context, includeDefinitions bool, onPage func([]ModelData) error) error

	// Models returns the full model catalog.
	Models(ctx context.Context, includeDefinitions bool) ([]ModelData, error)

	// Twin retrieves a twin.
	Twin(ctx context.Context, id string) (Twin, error)

	// Relationship retrieves a relationship of the source twin.
	Relationship(ctx context.Context, sourceID, id string) (Relationship, error)

	// Model retrieves a model with its definition.
	Model(ctx context.Context, id string) (ModelData, error)

	// AddTwin creates a twin.
	AddTwin(ctx context.Context, twin Twin) (Twin, error)

	// UpdateTwin patches a twin.
	UpdateTwin(ctx context.Context, id string, patches []Patch) error

	// DeleteTwin removes a twin.
	DeleteTwin(ctx context.Context, id string) error

	// AddRelationship creates a relationship.
	AddRelationship(ctx context.Context, rel Relationship) (Relationship, error)

	// DeleteRelationship removes a relationship of the source twin.
	DeleteRelationship(ctx context.Context, sourceID, id string) error

	// AddModels uploads model documents.
	AddModels(ctx context.Context, docs []json.RawMessage) ([]ModelData, error)

	// DeleteModel removes a model.
	DeleteModel(ctx context.Context, id string) error

	// ClearCache drops every cached listing.
	ClearCache(ctx context.Context) error
}

var _ Client = (*client)(nil)

type client struct {
	store Store
}

// NewClient returns a Client reading from store without caching.
func NewClient(store Store) Client {
	return &client{store: store}
}

func (c *client) QueryTwinsPaged(ctx context.Context, query string, onPage func([]Twin) error) error {
	token := ""
	for {
		page, err := c.store.QueryTwins(ctx, query, token)
		if err != nil {
			return errors.Wrap(ErrQueryTwins, err)
		}

		recs := flatten(page.Items)
		tws := make([]Twin, 0, len(recs))
		for _, rec := range recs {
			tw, err := rawTwinFromRecord(rec).Twin()
			if err != nil {
				return errors.Wrap(ErrQueryTwins, err)
			}
			tws = append(tws, tw)
		}
		if err := onPage(tws); err != nil {
			return err
		}

		if page.ContinuationToken == "" {
			return nil
		}
		token = page.ContinuationToken
	}
}

func (c *client) QueryRelationshipsPaged(ctx context.Context, twinID string, dir Direction, onPage func(RelationshipPage) error) error {
	switch dir {
	case Outgoing:
		return c.outgoing(ctx, twinID, false, onPage)
	case Incoming:
		return c.incoming(ctx, twinID, onPage)
	case All:
		if err := c.outgoing(ctx, twinID, true, onPage); err != nil {
			return err
		}
		return c.incoming(ctx, twinID, onPage)
	default:
		return errors.Wrap(ErrListRelationships, errDirection)
	}
}

func (c *client) outgoing(ctx context.Context, twinID string, more bool, onPage func(RelationshipPage) error) error {
	link := ""
	for {
		page, err := c.store.ListRelationships(ctx, twinID, link)
		if err != nil {
			return errors.Wrap(ErrListRelationships, err)
		}

		rels := make([]Relationship, 0, len(page.Items))
		for _, raw := range page.Items {
			rel, err := raw.Relationship()
			if err != nil {
				return errors.Wrap(ErrListRelationships, err)
			}
			rels = append(rels, rel)
		}
		if err := onPage(RelationshipPage{Relationships: rels, More: more || page.NextLink != ""}); err != nil {
			return err
		}

		if page.NextLink == "" {
			return nil
		}
		link = page.NextLink
	}
}

func (c *client) incoming(ctx context.Context, twinID string, onPage func(RelationshipPage) error) error {
	link := ""
	for {
		page, err := c.store.ListIncomingRelationships(ctx, twinID, link)
		if err != nil {
			return errors.Wrap(ErrListRelationships, err)
		}

		rels := make([]Relationship, 0, len(page.Items))
		for _, raw := range page.Items {
			rel, err := raw.Relationship(twinID)
			if err != nil {
				return errors.Wrap(ErrListRelationships, err)
			}
			rels = append(rels, rel)
		}
		if err := onPage(RelationshipPage{Relationships: rels, More: page.NextLink != ""}); err != nil {
			return err
		}

		if page.NextLink == "" {
			return nil
		}
		link = page.NextLink
	}
}

func (c *client) QueryModelsPaged(ctx context.Context, includeDefinitions bool, onPage func([]ModelData) error) error {
	link := ""
	for {
		page, err := c.store.ListModels(ctx, includeDefinitions, link)
		if err != nil {
			return errors.Wrap(ErrListModels, err)
		}
		if err := onPage(page.Items); err != nil {
			return err
		}

		if page.NextLink == "" {
			return nil
		}
		link = page.NextLink
	}
}

func (c *client) Models(ctx context.Context, includeDefinitions bool) ([]ModelData, error) {
	return collectModels(ctx, c, includeDefinitions)
}

func (c *client) Twin(ctx context.Context, id string) (Twin, error) {
	raw, err := c.store.Twin(ctx, id)
	if err != nil {
		return Twin{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return raw.Twin()
}

func (c *client) Relationship(ctx context.Context, sourceID, id string) (Relationship, error) {
	raw, err := c.store.Relationship(ctx, sourceID, id)
	if err != nil {
		return Relationship{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return raw.Relationship()
}

func (c *client) Model(ctx context.Context, id string) (ModelData, error) {
	md, err := c.store.Model(ctx, id)
	if err != nil {
		return ModelData{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return md, nil
}

func (c *client) AddTwin(ctx context.Context, twin Twin) (Twin, error) {
	raw := twin.Raw()
	if _, err := raw.Twin(); err != nil {
		return Twin{}, err
	}
	saved, err := c.store.AddTwin(ctx, raw)
	if err != nil {
		return Twin{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return saved.Twin()
}

func (c *client) UpdateTwin(ctx context.Context, id string, patches []Patch) error {
	if err := ValidatePatches(patches); err != nil {
		return err
	}
	if err := c.store.UpdateTwin(ctx, id, patches); err != nil {
		return errors.Wrap(errors.ErrUpdateEntity, err)
	}

	return nil
}

func (c *client) DeleteTwin(ctx context.Context, id string) error {
	if err := c.store.DeleteTwin(ctx, id); err != nil {
		return errors.Wrap(errors.ErrRemoveEntity, err)
	}

	return nil
}

func (c *client) AddRelationship(ctx context.Context, rel Relationship) (Relationship, error) {
	raw := rel.Raw()
	if _, err := raw.Relationship(); err != nil {
		return Relationship{}, err
	}
	saved, err := c.store.AddRelationship(ctx, raw)
	if err != nil {
		return Relationship{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return saved.Relationship()
}

func (c *client) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	if err := c.store.DeleteRelationship(ctx, sourceID, id); err != nil {
		return errors.Wrap(errors.ErrRemoveEntity, err)
	}

	return nil
}

func (c *client) AddModels(ctx context.Context, docs []json.RawMessage) ([]ModelData, error) {
	saved, err := c.store.AddModels(ctx, docs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return saved, nil
}

func (c *client) DeleteModel(ctx context.Context, id string) error {
	if err := c.store.DeleteModel(ctx, id); err != nil {
		return errors.Wrap(errors.ErrRemoveEntity, err)
	}

	return nil
}

func (c *client) ClearCache(context.Context) error {
	return nil
}

func collectModels(ctx context.Context, c Client, includeDefinitions bool) ([]ModelData, error) {
	var ret []ModelData
	err := c.QueryModelsPaged(ctx, includeDefinitions, func(page []ModelData) error {
		ret = append(ret, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}
