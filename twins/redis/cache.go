// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package redis contains a Redis backed cache of relationship and model
// listings.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"github.com/go-redis/redis/v8"
	"github.com/golang/snappy"
)

const (
	relsKey   = "explorer:relationships"
	modelsKey = "explorer:models"
)

var (
	// ErrCacheRead indicates a failure to read a cached listing.
	ErrCacheRead = errors.New("failed to read cached listing")

	// ErrCacheWrite indicates a failure to cache a listing.
	ErrCacheWrite = errors.New("failed to cache listing")
)

var _ twins.Cache = (*cache)(nil)

type cache struct {
	client *redis.Client
}

// NewCache returns a Redis twins.Cache. Each bucket is a hash, so clearing a
// bucket is a single DEL. Listings are stored as snappy compressed JSON.
func NewCache(client *redis.Client) twins.Cache {
	return &cache{client: client}
}

func (c *cache) Relationships(ctx context.Context, twinID string, dir twins.Direction) ([]twins.Relationship, bool, error) {
	var rels []twins.Relationship
	ok, err := c.get(ctx, relsKey, relsField(twinID, dir), &rels)

	return rels, ok, err
}

func (c *cache) SaveRelationships(ctx context.Context, twinID string, dir twins.Direction, rels []twins.Relationship) error {
	return c.set(ctx, relsKey, relsField(twinID, dir), rels)
}

func (c *cache) Models(ctx context.Context, includeDefinitions bool) ([]twins.ModelData, bool, error) {
	var models []twins.ModelData
	ok, err := c.get(ctx, modelsKey, modelsField(includeDefinitions), &models)

	return models, ok, err
}

func (c *cache) SaveModels(ctx context.Context, includeDefinitions bool, models []twins.ModelData) error {
	return c.set(ctx, modelsKey, modelsField(includeDefinitions), models)
}

func (c *cache) ClearRelationships(ctx context.Context) error {
	if err := c.client.Del(ctx, relsKey).Err(); err != nil {
		return errors.Wrap(errors.ErrRemoveEntity, err)
	}

	return nil
}

func (c *cache) ClearModels(ctx context.Context) error {
	if err := c.client.Del(ctx, modelsKey).Err(); err != nil {
		return errors.Wrap(errors.ErrRemoveEntity, err)
	}

	return nil
}

func (c *cache) get(ctx context.Context, key, field string, v any) (bool, error) {
	data, err := c.client.HGet(ctx, key, field).Bytes()
	switch {
	case err == redis.Nil:
		return false, nil
	case err != nil:
		return false, errors.Wrap(ErrCacheRead, err)
	}
	data, err = snappy.Decode(nil, data)
	if err != nil {
		return false, errors.Wrap(ErrCacheRead, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(ErrCacheRead, err)
	}

	return true, nil
}

func (c *cache) set(ctx context.Context, key, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(ErrCacheWrite, err)
	}
	if err := c.client.HSet(ctx, key, field, snappy.Encode(nil, data)).Err(); err != nil {
		return errors.Wrap(ErrCacheWrite, err)
	}

	return nil
}

func relsField(twinID string, dir twins.Direction) string {
	return fmt.Sprintf("%s:%s", dir, twinID)
}

func modelsField(includeDefinitions bool) string {
	if includeDefinitions {
		return "definitions"
	}
	return "catalog"
}
