// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/absmach/twinexplorer/pkg/batch"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

const (
	// DefaultExpansionLevels is the relationship depth loaded around the
	// queried twins.
	DefaultExpansionLevels = 1

	twinsShare = 25.0
)

// ErrCanceled indicates a load stopped by Cancel or by its context.
var ErrCanceled = errors.New("graph load canceled")

// LoadOptions configures a load.
type LoadOptions struct {
	// ClearExisting removes what the backend no longer returns for the
	// loaded twins.
	ClearExisting bool

	// ExpansionLevels is the number of relationship hops to load.
	ExpansionLevels int

	// Direction selects the relationships loaded for each twin.
	Direction twins.Direction

	// EagerLoading fetches relationship endpoints missing from the canvas
	// instead of dropping their relationships.
	EagerLoading bool

	// Concurrency bounds the relationship requests in flight.
	Concurrency int

	// RefreshEvery is the number of twins between layouts.
	RefreshEvery int

	// OnProgress receives the load progress in percent.
	OnProgress func(percent float64)
}

// LoadResult summarizes a load.
type LoadResult struct {
	Twins                int      `json:"twins"`
	Relationships        int      `json:"relationships"`
	AddedRelationships   int      `json:"added_relationships"`
	RemovedTwins         int      `json:"removed_twins"`
	RemovedRelationships int      `json:"removed_relationships"`
	Failed               []string `json:"failed,omitempty"`
}

// Loader loads query results into a canvas.
type Loader struct {
	client twins.Client
	canvas Canvas
	logger *slog.Logger

	mu   sync.Mutex
	runs map[*run]struct{}
}

// NewLoader returns a Loader rendering into canvas.
func NewLoader(client twins.Client, canvas Canvas, logger *slog.Logger) *Loader {
	return &Loader{
		client: client,
		canvas: canvas,
		logger: logger,
		runs:   make(map[*run]struct{}),
	}
}

// Cancel stops every running load. No canvas mutation of those loads is
// applied once Cancel returns.
func (l *Loader) Cancel() {
	l.mu.Lock()
	runs := make([]*run, 0, len(l.runs))
	for r := range l.runs {
		runs = append(runs, r)
	}
	l.mu.Unlock()

	for _, r := range runs {
		r.stop()
	}
}

// Load renders the twins returned by query and their relationships.
func (l *Loader) Load(ctx context.Context, query string, opts LoadOptions) (LoadResult, error) {
	opts = withDefaults(opts)
	ctx, r := l.start(ctx, opts.OnProgress)
	defer l.finish(r)

	l.canvas.ResetTransient()
	selected := l.canvas.Selected()
	var previous map[string]struct{}
	if opts.ClearExisting {
		previous = make(map[string]struct{})
		for _, tw := range l.canvas.Twins() {
			previous[tw.ID] = struct{}{}
		}
	}
	before := l.canvas.Relationships()

	var res LoadResult
	var ids []string
	pages := 0
	err := l.client.QueryTwinsPaged(ctx, query, func(page []twins.Twin) error {
		if r.canceled() {
			return ErrCanceled
		}
		if !r.apply(func() { l.canvas.AddTwins(page) }) {
			return ErrCanceled
		}
		for _, tw := range page {
			ids = append(ids, tw.ID)
			delete(previous, tw.ID)
		}
		pages++
		r.progress(twinsShare * float64(pages) / float64(pages+1))

		return nil
	})
	if r.canceled() {
		return res, ErrCanceled
	}
	if err != nil {
		return res, err
	}
	res.Twins = len(ids)
	r.progress(twinsShare)

	if opts.ClearExisting && len(previous) > 0 {
		stale := make([]string, 0, len(previous))
		for id := range previous {
			stale = append(stale, id)
		}
		if !r.apply(func() { l.canvas.RemoveTwins(stale) }) {
			return res, ErrCanceled
		}
		res.RemovedTwins = len(stale)
	}

	if err := l.relationships(ctx, r, ids, before, opts, twinsShare, &res); err != nil {
		return res, err
	}

	return res, l.settle(ctx, r, selected)
}

// Expand loads the relationships of twins already on the canvas.
func (l *Loader) Expand(ctx context.Context, ids []string, opts LoadOptions) (LoadResult, error) {
	opts = withDefaults(opts)
	ctx, r := l.start(ctx, opts.OnProgress)
	defer l.finish(r)

	selected := l.canvas.Selected()
	before := l.canvas.Relationships()

	var present []string
	for _, id := range ids {
		if l.canvas.HasTwin(id) {
			present = append(present, id)
		}
	}

	res := LoadResult{Twins: len(present)}
	if err := l.relationships(ctx, r, present, before, opts, 0, &res); err != nil {
		return res, err
	}

	return res, l.settle(ctx, r, selected)
}

func (l *Loader) settle(ctx context.Context, r *run, selected string) error {
	ok := r.apply(func() {
		l.canvas.Select(selected)
		if err := l.canvas.Layout(ctx); err != nil {
			l.logger.Warn("Failed to lay out graph", slog.Any("error", err))
		}
	})
	if !ok {
		return ErrCanceled
	}
	r.progress(100)

	return nil
}

// level holds what one expansion level fetched.
type level struct {
	mu       sync.Mutex
	fetched  map[twins.RelationshipKey]struct{}
	affected map[string]bool
	next     map[string]struct{}
	total    int
	added    int
	failed   []string
}

func (l *Loader) relationships(ctx context.Context, r *run, ids []string, before []twins.Relationship, opts LoadOptions, base float64, res *LoadResult) error {
	share := (100 - base) / float64(opts.ExpansionLevels)
	fetched := make(map[twins.RelationshipKey]struct{})
	affected := make(map[string]bool)
	expanded := make(map[string]bool)

	frontier := ids
	for depth := 0; depth < opts.ExpansionLevels && len(frontier) > 0; depth++ {
		var items []string
		for _, id := range frontier {
			if !expanded[id] {
				expanded[id] = true
				items = append(items, id)
			}
		}

		lvl := &level{
			fetched:  fetched,
			affected: affected,
			next:     make(map[string]struct{}),
		}
		offset := base + share*float64(depth)
		err := batch.Run(ctx, items, func(ctx context.Context, id string) error {
			return l.expand(ctx, r, id, opts, lvl)
		},
			batch.WithConcurrency(opts.Concurrency),
			batch.WithRefreshEvery(opts.RefreshEvery),
			batch.WithUpdate(func(p float64) { r.progress(offset + share*p/100) }),
			batch.WithRefresh(func() {
				r.apply(func() {
					if err := l.canvas.Layout(ctx); err != nil {
						l.logger.Warn("Failed to lay out graph", slog.Any("error", err))
					}
				})
			}),
		)
		if r.canceled() || err != nil {
			return ErrCanceled
		}

		res.Relationships += lvl.total
		res.AddedRelationships += lvl.added
		res.Failed = append(res.Failed, lvl.failed...)

		frontier = nil
		for id := range lvl.next {
			if !expanded[id] && l.canvas.HasTwin(id) {
				frontier = append(frontier, id)
			}
		}
	}

	if !opts.ClearExisting {
		return nil
	}

	var stale []twins.RelationshipKey
	for _, rel := range before {
		key := rel.Key()
		if _, ok := fetched[key]; ok {
			continue
		}
		if owned(rel, affected, opts.Direction) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if !r.apply(func() { l.canvas.RemoveRelationships(stale) }) {
		return ErrCanceled
	}
	res.RemovedRelationships = len(stale)

	return nil
}

// owned tells whether rel belongs to the relationships fetched for one of
// the twins.
func owned(rel twins.Relationship, tws map[string]bool, dir twins.Direction) bool {
	switch dir {
	case twins.Incoming:
		return tws[rel.TargetID]
	case twins.All:
		return tws[rel.SourceID] || tws[rel.TargetID]
	default:
		return tws[rel.SourceID]
	}
}

func (l *Loader) expand(ctx context.Context, r *run, id string, opts LoadOptions, lvl *level) error {
	if r.canceled() {
		return ErrCanceled
	}

	var keys []twins.RelationshipKey
	var endpoints []string
	total, added := 0, 0
	err := l.client.QueryRelationshipsPaged(ctx, id, opts.Direction, func(page twins.RelationshipPage) error {
		if r.canceled() {
			return ErrCanceled
		}
		if opts.EagerLoading {
			if err := l.fetchEndpoints(ctx, r, page.Relationships); err != nil {
				return err
			}
		}
		n := 0
		if !r.apply(func() { n = l.canvas.AddRelationships(page.Relationships) }) {
			return ErrCanceled
		}
		added += n
		total += len(page.Relationships)
		for _, rel := range page.Relationships {
			keys = append(keys, rel.Key())
			if rel.SourceID == id {
				endpoints = append(endpoints, rel.TargetID)
			} else {
				endpoints = append(endpoints, rel.SourceID)
			}
		}

		return nil
	})
	if r.canceled() {
		return ErrCanceled
	}
	if err != nil {
		l.logger.Warn(fmt.Sprintf("Failed to load relationships of twin %s", id), slog.Any("error", err))
		lvl.mu.Lock()
		lvl.failed = append(lvl.failed, id)
		lvl.mu.Unlock()
		return nil
	}

	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	lvl.affected[id] = true
	lvl.total += total
	lvl.added += added
	for _, key := range keys {
		lvl.fetched[key] = struct{}{}
	}
	for _, e := range endpoints {
		lvl.next[e] = struct{}{}
	}

	return nil
}

// fetchEndpoints adds the twins rels point to that are not on the canvas.
// A twin that cannot be fetched leaves its relationships dangling, and
// they are dropped.
func (l *Loader) fetchEndpoints(ctx context.Context, r *run, rels []twins.Relationship) error {
	seen := make(map[string]bool)
	var missing []twins.Twin
	for _, rel := range rels {
		for _, id := range []string{rel.SourceID, rel.TargetID} {
			if seen[id] || l.canvas.HasTwin(id) {
				continue
			}
			seen[id] = true
			tw, err := l.client.Twin(ctx, id)
			if r.canceled() {
				return ErrCanceled
			}
			if err != nil {
				l.logger.Warn(fmt.Sprintf("Failed to load twin %s", id), slog.Any("error", err))
				continue
			}
			missing = append(missing, tw)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if !r.apply(func() { l.canvas.AddTwins(missing) }) {
		return ErrCanceled
	}

	return nil
}

func withDefaults(opts LoadOptions) LoadOptions {
	if opts.ExpansionLevels < 1 {
		opts.ExpansionLevels = DefaultExpansionLevels
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = batch.DefaultConcurrency
	}

	return opts
}

func (l *Loader) start(ctx context.Context, onProgress func(float64)) (context.Context, *run) {
	ctx, cancel := context.WithCancel(ctx)
	r := &run{ctx: ctx, cancel: cancel, onProgress: onProgress}

	l.mu.Lock()
	l.runs[r] = struct{}{}
	l.mu.Unlock()

	return ctx, r
}

func (l *Loader) finish(r *run) {
	l.mu.Lock()
	delete(l.runs, r)
	l.mu.Unlock()

	r.cancel()
}

// run is the state of one load. Canvas mutations go through apply so that
// none is applied after stop returns.
type run struct {
	ctx        context.Context
	cancel     context.CancelFunc
	onProgress func(float64)

	mu      sync.Mutex
	stopped bool
	percent float64
}

func (r *run) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	r.cancel()
}

func (r *run) canceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopped || r.ctx.Err() != nil
}

// apply runs mutate unless the run is canceled and tells whether it ran.
func (r *run) apply(mutate func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.ctx.Err() != nil {
		return false
	}
	mutate()

	return true
}

// progress reports percent if it advances the load.
func (r *run) progress(percent float64) {
	r.mu.Lock()
	if r.onProgress == nil || percent <= r.percent {
		r.mu.Unlock()
		return
	}
	r.percent = percent
	r.mu.Unlock()

	r.onProgress(percent)
}
