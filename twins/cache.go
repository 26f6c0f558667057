// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/absmach/twinexplorer/pkg/errors"
)

// CacheMode selects the listing cache placed in front of the store.
type CacheMode string

const (
	// CacheNone leaves listings uncached.
	CacheNone CacheMode = "none"
	// CacheMemory keeps listings in process memory.
	CacheMemory CacheMode = "memory"
	// CacheRedis keeps listings in Redis.
	CacheRedis CacheMode = "redis"
)

// ErrCacheMode indicates an unknown cache mode.
var ErrCacheMode = errors.New("unknown cache mode")

// ParseCacheMode parses a cache mode. An empty string means CacheNone.
func ParseCacheMode(s string) (CacheMode, error) {
	switch mode := CacheMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return CacheNone, nil
	case CacheNone, CacheMemory, CacheRedis:
		return mode, nil
	default:
		return CacheNone, errors.Wrap(ErrCacheMode, errors.New(s))
	}
}

// Cache stores complete relationship and model listings. Lookups report
// whether the entry was present.
type Cache interface {
	// Relationships returns the cached relationships of a twin.
	Relationships(ctx context.Context, twinID string, dir Direction) ([]Relationship, bool, error)

	// SaveRelationships caches the relationships of a twin.
	SaveRelationships(ctx context.Context, twinID string, dir Direction, rels []Relationship) error

	// Models returns the cached model catalog.
	Models(ctx context.Context, includeDefinitions bool) ([]ModelData, bool, error)

	// SaveModels caches the model catalog.
	SaveModels(ctx context.Context, includeDefinitions bool, models []ModelData) error

	// ClearRelationships drops every cached relationship listing.
	ClearRelationships(ctx context.Context) error

	// ClearModels drops every cached model catalog.
	ClearModels(ctx context.Context) error
}

var _ Client = (*cachedClient)(nil)

type cachedClient struct {
	client Client
	cache  Cache

	// mu orders listing saves against invalidations. A listing is only
	// saved when no invalidation happened while it was being fetched.
	mu        sync.Mutex
	relsGen   uint64
	modelsGen uint64
}

// NewCachedClient decorates client with a cache of complete model and
// relationship listings. A cached listing is delivered as a single page.
// Twin and relationship mutations clear all cached relationships, model
// mutations clear all cached models. A failing cache behaves as a miss.
func NewCachedClient(client Client, cache Cache) Client {
	return &cachedClient{
		client: client,
		cache:  cache,
	}
}

func (cc *cachedClient) QueryTwinsPaged(ctx context.Context, query string, onPage func([]Twin) error) error {
	return cc.client.QueryTwinsPaged(ctx, query, onPage)
}

func (cc *cachedClient) QueryRelationshipsPaged(ctx context.Context, twinID string, dir Direction, onPage func(RelationshipPage) error) error {
	if rels, ok, err := cc.cache.Relationships(ctx, twinID, dir); err == nil && ok {
		return onPage(RelationshipPage{Relationships: rels})
	}

	gen := cc.generation(&cc.relsGen)
	var all []Relationship
	err := cc.client.QueryRelationshipsPaged(ctx, twinID, dir, func(page RelationshipPage) error {
		all = append(all, page.Relationships...)
		return onPage(page)
	})
	if err != nil {
		return err
	}
	if all == nil {
		all = []Relationship{}
	}
	cc.saveIfCurrent(&cc.relsGen, gen, func() error {
		return cc.cache.SaveRelationships(ctx, twinID, dir, all)
	})

	return nil
}

func (cc *cachedClient) QueryModelsPaged(ctx context.Context, includeDefinitions bool, onPage func([]ModelData) error) error {
	if models, ok, err := cc.cache.Models(ctx, includeDefinitions); err == nil && ok {
		return onPage(models)
	}

	gen := cc.generation(&cc.modelsGen)
	var all []ModelData
	err := cc.client.QueryModelsPaged(ctx, includeDefinitions, func(page []ModelData) error {
		all = append(all, page...)
		return onPage(page)
	})
	if err != nil {
		return err
	}
	if all == nil {
		all = []ModelData{}
	}
	cc.saveIfCurrent(&cc.modelsGen, gen, func() error {
		return cc.cache.SaveModels(ctx, includeDefinitions, all)
	})

	return nil
}

func (cc *cachedClient) Models(ctx context.Context, includeDefinitions bool) ([]ModelData, error) {
	return collectModels(ctx, cc, includeDefinitions)
}

func (cc *cachedClient) Twin(ctx context.Context, id string) (Twin, error) {
	return cc.client.Twin(ctx, id)
}

func (cc *cachedClient) Relationship(ctx context.Context, sourceID, id string) (Relationship, error) {
	return cc.client.Relationship(ctx, sourceID, id)
}

func (cc *cachedClient) Model(ctx context.Context, id string) (ModelData, error) {
	return cc.client.Model(ctx, id)
}

func (cc *cachedClient) AddTwin(ctx context.Context, twin Twin) (Twin, error) {
	cc.invalidate(&cc.relsGen)
	defer cc.clearRelationships(ctx)
	return cc.client.AddTwin(ctx, twin)
}

func (cc *cachedClient) UpdateTwin(ctx context.Context, id string, patches []Patch) error {
	cc.invalidate(&cc.relsGen)
	defer cc.clearRelationships(ctx)
	return cc.client.UpdateTwin(ctx, id, patches)
}

func (cc *cachedClient) DeleteTwin(ctx context.Context, id string) error {
	cc.invalidate(&cc.relsGen)
	defer cc.clearRelationships(ctx)
	return cc.client.DeleteTwin(ctx, id)
}

func (cc *cachedClient) AddRelationship(ctx context.Context, rel Relationship) (Relationship, error) {
	cc.invalidate(&cc.relsGen)
	defer cc.clearRelationships(ctx)
	return cc.client.AddRelationship(ctx, rel)
}

func (cc *cachedClient) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	cc.invalidate(&cc.relsGen)
	defer cc.clearRelationships(ctx)
	return cc.client.DeleteRelationship(ctx, sourceID, id)
}

func (cc *cachedClient) AddModels(ctx context.Context, docs []json.RawMessage) ([]ModelData, error) {
	cc.invalidate(&cc.modelsGen)
	defer cc.clearModels(ctx)
	return cc.client.AddModels(ctx, docs)
}

func (cc *cachedClient) DeleteModel(ctx context.Context, id string) error {
	cc.invalidate(&cc.modelsGen)
	defer cc.clearModels(ctx)
	return cc.client.DeleteModel(ctx, id)
}

func (cc *cachedClient) ClearCache(ctx context.Context) error {
	if err := cc.clearAll(ctx); err != nil {
		return err
	}

	return cc.client.ClearCache(ctx)
}

func (cc *cachedClient) clearAll(ctx context.Context) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.relsGen++
	cc.modelsGen++
	if err := cc.cache.ClearRelationships(ctx); err != nil {
		return err
	}

	return cc.cache.ClearModels(ctx)
}

func (cc *cachedClient) clearRelationships(ctx context.Context) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.relsGen++
	_ = cc.cache.ClearRelationships(ctx)
}

func (cc *cachedClient) clearModels(ctx context.Context) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.modelsGen++
	_ = cc.cache.ClearModels(ctx)
}

func (cc *cachedClient) generation(gen *uint64) uint64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	return *gen
}

// invalidate marks listings fetched before or during a mutation as stale.
func (cc *cachedClient) invalidate(gen *uint64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	*gen++
}

func (cc *cachedClient) saveIfCurrent(gen *uint64, seen uint64, save func() error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if *gen != seen {
		return
	}
	_ = save()
}

var _ Cache = (*memoryCache)(nil)

type relationshipsKey struct {
	twinID string
	dir    Direction
}

type memoryCache struct {
	mu            sync.RWMutex
	relationships map[relationshipsKey][]Relationship
	models        map[bool][]ModelData
}

// NewMemoryCache returns an in-process Cache.
func NewMemoryCache() Cache {
	return &memoryCache{
		relationships: make(map[relationshipsKey][]Relationship),
		models:        make(map[bool][]ModelData),
	}
}

func (mc *memoryCache) Relationships(_ context.Context, twinID string, dir Direction) ([]Relationship, bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	rels, ok := mc.relationships[relationshipsKey{twinID, dir}]
	if !ok {
		return nil, false, nil
	}

	return append([]Relationship{}, rels...), true, nil
}

func (mc *memoryCache) SaveRelationships(_ context.Context, twinID string, dir Direction, rels []Relationship) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.relationships[relationshipsKey{twinID, dir}] = append([]Relationship{}, rels...)

	return nil
}

func (mc *memoryCache) Models(_ context.Context, includeDefinitions bool) ([]ModelData, bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	models, ok := mc.models[includeDefinitions]
	if !ok {
		return nil, false, nil
	}

	return append([]ModelData{}, models...), true, nil
}

func (mc *memoryCache) SaveModels(_ context.Context, includeDefinitions bool, models []ModelData) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.models[includeDefinitions] = append([]ModelData{}, models...)

	return nil
}

func (mc *memoryCache) ClearRelationships(context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.relationships = make(map[relationshipsKey][]Relationship)

	return nil
}

func (mc *memoryCache) ClearModels(context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.models = make(map[bool][]ModelData)

	return nil
}
