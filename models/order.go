// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"context"

	"github.com/absmach/twinexplorer/pkg/errors"
)

// UploadOrder orders ids so that every model follows the models it extends
// or embeds. Dependencies outside ids are traversed but not returned.
func (r *Resolver) UploadOrder(ids []string) ([]string, error) {
	g, err := r.loaded()
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]bool, len(ids))
	for _, id := range ids {
		candidates[id] = true
	}

	var ret []string
	visited := make(map[string]bool)
	inProgress := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		if inProgress[id] {
			return errors.Wrap(ErrCycle, errors.New(id))
		}
		inProgress[id] = true
		if n, ok := g.nodes[id]; ok {
			for _, dep := range n.dependencies() {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(inProgress, id)
		visited[id] = true
		if candidates[id] {
			ret = append(ret, id)
		}

		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

// DeleteAll deletes ids with del, each model only once no remaining model
// depends on it. It returns the models deleted, in order. A pass that
// deletes nothing means the remaining models depend on each other.
func (r *Resolver) DeleteAll(ctx context.Context, ids []string, del func(context.Context, string) error) ([]string, error) {
	g, err := r.loaded()
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(ids))
	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !pending[id] {
			pending[id] = true
			remaining = append(remaining, id)
		}
	}

	var deleted []string
	defer func() {
		if len(deleted) > 0 {
			r.Invalidate()
		}
	}()

	for pass := 0; len(remaining) > 0 && pass <= len(ids); pass++ {
		referenced := make(map[string]bool)
		for _, id := range remaining {
			if n, ok := g.nodes[id]; ok {
				for _, dep := range n.dependencies() {
					if dep != id {
						referenced[dep] = true
					}
				}
			}
		}

		var next []string
		for _, id := range remaining {
			if referenced[id] {
				next = append(next, id)
				continue
			}
			if err := ctx.Err(); err != nil {
				return deleted, err
			}
			if err := del(ctx, id); err != nil {
				return deleted, err
			}
			delete(pending, id)
			deleted = append(deleted, id)
		}
		if len(next) == len(remaining) {
			return deleted, errors.Wrap(ErrCycle, errors.New("no deletable model left"))
		}
		remaining = next
	}

	return deleted, nil
}
