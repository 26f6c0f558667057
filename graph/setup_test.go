// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package graph_test

import (
	"fmt"

	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
)

const roomModel = "dtmi:example:Room;1"

func twin(id string) twins.Twin {
	return twins.Twin{ID: id, ModelID: roomModel, Properties: map[string]any{"name": id}}
}

func rel(id, src, dst, name string) twins.Relationship {
	return twins.Relationship{ID: id, SourceID: src, TargetID: dst, Name: name}
}

func record(id string) map[string]any {
	return map[string]any{
		twins.IDKey:       id,
		twins.MetadataKey: map[string]any{twins.ModelKey: roomModel},
		"name":            id,
	}
}

func twinIDs(tws []twins.Twin) []string {
	var ret []string
	for _, tw := range tws {
		ret = append(ret, tw.ID)
	}
	return ret
}

func relKeys(rels []twins.Relationship) []string {
	var ret []string
	for _, r := range rels {
		ret = append(ret, fmt.Sprintf("%s->%s:%s", r.SourceID, r.TargetID, r.Name))
	}
	return ret
}

// newStore seeds a building: a contains b and c, b feeds c, c is part of a
// and d sits alone.
func newStore(pageSize int) *mocks.Store {
	store := mocks.NewStore(pageSize)
	store.Seed(
		[]twins.Twin{twin("a"), twin("b"), twin("c"), twin("d")},
		[]twins.Relationship{
			rel("r1", "a", "b", "contains"),
			rel("r2", "a", "c", "contains"),
			rel("r3", "b", "c", "feeds"),
			rel("r4", "c", "a", "isPartOf"),
		},
	)
	return store
}
