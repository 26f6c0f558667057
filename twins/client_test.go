// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twin(id string) twins.Twin {
	return twins.Twin{ID: id, ModelID: roomModel, Properties: map[string]any{"name": id}}
}

func rel(id, src, dst, name string) twins.Relationship {
	return twins.Relationship{ID: id, SourceID: src, TargetID: dst, Name: name}
}

func newStore(pageSize int) *mocks.Store {
	store := mocks.NewStore(pageSize)
	store.Seed(
		[]twins.Twin{twin("a"), twin("b"), twin("c"), twin("d"), twin("e")},
		[]twins.Relationship{
			rel("r1", "a", "b", "contains"),
			rel("r2", "a", "c", "contains"),
			rel("r3", "a", "d", "feeds"),
			rel("r4", "b", "a", "isPartOf"),
			rel("r5", "c", "a", "isPartOf"),
		},
	)
	return store
}

func TestQueryTwinsPaged(t *testing.T) {
	cases := []struct {
		desc     string
		pageSize int
		pages    int
	}{
		{desc: "single page", pageSize: 0, pages: 1},
		{desc: "exact pages", pageSize: 5, pages: 1},
		{desc: "several pages", pageSize: 2, pages: 3},
		{desc: "one twin per page", pageSize: 1, pages: 5},
	}

	for _, tc := range cases {
		store := newStore(tc.pageSize)
		client := twins.NewClient(store)

		var ids []string
		pages := 0
		err := client.QueryTwinsPaged(context.Background(), "SELECT * FROM DIGITALTWINS", func(page []twins.Twin) error {
			pages++
			for _, tw := range page {
				ids = append(ids, tw.ID)
			}
			return nil
		})
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.pages, pages, tc.desc)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids, tc.desc)
	}
}

func TestQueryTwinsFlattensNestedRecords(t *testing.T) {
	store := newStore(0)
	query := "SELECT F, R FROM DIGITALTWINS F JOIN R RELATED F.contains"
	rec := func(id string) map[string]any {
		return map[string]any{
			twins.IDKey:       id,
			twins.MetadataKey: map[string]any{twins.ModelKey: roomModel},
			"name":            id,
		}
	}
	store.SetQueryResult(query, []map[string]any{
		{"F": rec("a"), "R": rec("b")},
		{"F": rec("a"), "R": rec("c")},
		{"list": []any{rec("d"), map[string]any{"inner": rec("b")}}},
		{"count": float64(3)},
	})

	client := twins.NewClient(store)
	var got []string
	err := client.QueryTwinsPaged(context.Background(), query, func(page []twins.Twin) error {
		for _, tw := range page {
			got = append(got, tw.ID)
			assert.Equal(t, roomModel, tw.ModelID)
		}
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestQueryTwinsErrors(t *testing.T) {
	errBackend := errors.New("backend unavailable")
	store := newStore(2)
	store.Fail(mocks.OpQueryTwins, "", errBackend)
	client := twins.NewClient(store)

	err := client.QueryTwinsPaged(context.Background(), "q", func([]twins.Twin) error { return nil })
	assert.True(t, errors.Contains(err, twins.ErrQueryTwins), fmt.Sprintf("expected %s got %s", twins.ErrQueryTwins, err))
	assert.True(t, errors.Contains(err, errBackend))

	store.Fail(mocks.OpQueryTwins, "", nil)
	store.SetQueryResult("bad", []map[string]any{{twins.IDKey: "x"}})
	err = client.QueryTwinsPaged(context.Background(), "bad", func([]twins.Twin) error { return nil })
	assert.True(t, errors.Contains(err, twins.ErrMalformedTwin), fmt.Sprintf("expected %s got %s", twins.ErrMalformedTwin, err))

	errStop := errors.New("stop")
	calls := 0
	err = client.QueryTwinsPaged(context.Background(), "q", func([]twins.Twin) error {
		calls++
		return errStop
	})
	assert.Equal(t, errStop, err)
	assert.Equal(t, 1, calls, "callback error must stop paging")
}

func TestQueryRelationshipsPaged(t *testing.T) {
	cases := []struct {
		desc  string
		twin  string
		dir   twins.Direction
		keys  []twins.RelationshipKey
		mores []bool
	}{
		{
			desc: "outgoing",
			twin: "a",
			dir:  twins.Outgoing,
			keys: []twins.RelationshipKey{
				{SourceID: "a", TargetID: "b", Name: "contains"},
				{SourceID: "a", TargetID: "c", Name: "contains"},
				{SourceID: "a", TargetID: "d", Name: "feeds"},
			},
			mores: []bool{true, false},
		},
		{
			desc: "incoming normalized to the queried target",
			twin: "a",
			dir:  twins.Incoming,
			keys: []twins.RelationshipKey{
				{SourceID: "b", TargetID: "a", Name: "isPartOf"},
				{SourceID: "c", TargetID: "a", Name: "isPartOf"},
			},
			mores: []bool{false},
		},
		{
			desc: "all runs outgoing then incoming",
			twin: "b",
			dir:  twins.All,
			keys: []twins.RelationshipKey{
				{SourceID: "b", TargetID: "a", Name: "isPartOf"},
				{SourceID: "a", TargetID: "b", Name: "contains"},
			},
			mores: []bool{true, false},
		},
		{
			desc:  "twin without relationships",
			twin:  "e",
			dir:   twins.Outgoing,
			keys:  nil,
			mores: []bool{false},
		},
	}

	for _, tc := range cases {
		client := twins.NewClient(newStore(2))

		var keys []twins.RelationshipKey
		var mores []bool
		err := client.QueryRelationshipsPaged(context.Background(), tc.twin, tc.dir, func(page twins.RelationshipPage) error {
			mores = append(mores, page.More)
			for _, r := range page.Relationships {
				keys = append(keys, r.Key())
			}
			return nil
		})
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.keys, keys, tc.desc)
		assert.Equal(t, tc.mores, mores, tc.desc)
	}
}

func TestQueryRelationshipsErrors(t *testing.T) {
	store := newStore(0)
	client := twins.NewClient(store)

	err := client.QueryRelationshipsPaged(context.Background(), "missing", twins.Outgoing, func(twins.RelationshipPage) error { return nil })
	assert.True(t, errors.Contains(err, twins.ErrListRelationships), fmt.Sprintf("expected %s got %s", twins.ErrListRelationships, err))

	errBackend := errors.New("throttled")
	store.Fail(mocks.OpListIncomingRelationships, "a", errBackend)
	pages := 0
	err = client.QueryRelationshipsPaged(context.Background(), "a", twins.All, func(twins.RelationshipPage) error {
		pages++
		return nil
	})
	assert.True(t, errors.Contains(err, errBackend), fmt.Sprintf("expected %s got %s", errBackend, err))
	assert.Equal(t, 1, pages, "outgoing part is delivered before the incoming failure")

	err = client.QueryRelationshipsPaged(context.Background(), "a", twins.Direction(9), func(twins.RelationshipPage) error { return nil })
	assert.NotNil(t, err)
}

func TestModels(t *testing.T) {
	store := mocks.NewStore(1)
	client := twins.NewClient(store)
	docs := []json.RawMessage{
		json.RawMessage(`{"@id":"dtmi:example:Space;1","@type":"Interface","displayName":"Space"}`),
		json.RawMessage(`{"@id":"dtmi:example:Room;1","@type":"Interface","extends":"dtmi:example:Space;1"}`),
	}
	saved, err := client.AddModels(context.Background(), docs)
	require.Nil(t, err)
	assert.Len(t, saved, 2)

	models, err := client.Models(context.Background(), false)
	require.Nil(t, err)
	require.Len(t, models, 2)
	assert.Nil(t, models[0].Model)

	models, err = client.Models(context.Background(), true)
	require.Nil(t, err)
	assert.NotNil(t, models[0].Model)
	assert.Equal(t, 4, store.Calls(mocks.OpListModels))
}

func TestMutations(t *testing.T) {
	store := newStore(0)
	client := twins.NewClient(store)
	ctx := context.Background()

	saved, err := client.AddTwin(ctx, twin("f"))
	require.Nil(t, err)
	assert.NotEmpty(t, saved.ETag)

	_, err = client.AddTwin(ctx, twins.Twin{ID: "g"})
	assert.True(t, errors.Contains(err, twins.ErrMalformedTwin))

	err = client.UpdateTwin(ctx, "f", []twins.Patch{{Op: "replace", Path: "/name", Value: "renamed"}})
	require.Nil(t, err)
	tw, err := client.Twin(ctx, "f")
	require.Nil(t, err)
	assert.Equal(t, "renamed", tw.Properties["name"])

	err = client.UpdateTwin(ctx, "f", nil)
	assert.True(t, errors.Contains(err, errors.ErrMalformedEntity))

	_, err = client.AddRelationship(ctx, rel("r9", "f", "a", "feeds"))
	require.Nil(t, err)
	err = client.DeleteTwin(ctx, "f")
	assert.True(t, errors.Contains(err, errors.ErrRemoveEntity), fmt.Sprintf("twin with relationships: got %s", err))

	require.Nil(t, client.DeleteRelationship(ctx, "f", "r9"))
	require.Nil(t, client.DeleteTwin(ctx, "f"))
	_, err = client.Twin(ctx, "f")
	assert.True(t, errors.Contains(err, errors.ErrNotFound))
	assert.Nil(t, client.ClearCache(ctx))
}

func TestRelationship(t *testing.T) {
	cases := []struct {
		desc     string
		sourceID string
		id       string
		target   string
		err      error
	}{
		{desc: "existing relationship", sourceID: "a", id: "r1", target: "b"},
		{desc: "wrong source", sourceID: "b", id: "r1", err: errors.ErrNotFound},
		{desc: "missing relationship", sourceID: "a", id: "r99", err: errors.ErrNotFound},
	}

	client := twins.NewCachedClient(twins.NewClient(newStore(0)), twins.NewMemoryCache())
	for _, tc := range cases {
		r, err := client.Relationship(context.Background(), tc.sourceID, tc.id)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			assert.True(t, errors.Contains(err, errors.ErrViewEntity), tc.desc)
			continue
		}
		assert.Equal(t, tc.target, r.TargetID, tc.desc)
		assert.Equal(t, "contains", r.Name, tc.desc)
	}
}

func TestModel(t *testing.T) {
	store := mocks.NewStore(0)
	client := twins.NewCachedClient(twins.NewClient(store), twins.NewMemoryCache())
	doc := json.RawMessage(`{"@id":"dtmi:example:Space;1","@type":"Interface","displayName":"Space"}`)
	_, err := client.AddModels(context.Background(), []json.RawMessage{doc})
	require.Nil(t, err)

	cases := []struct {
		desc string
		id   string
		err  error
	}{
		{desc: "existing model", id: "dtmi:example:Space;1"},
		{desc: "missing model", id: "dtmi:example:Room;1", err: errors.ErrNotFound},
	}

	for _, tc := range cases {
		md, err := client.Model(context.Background(), tc.id)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		assert.Equal(t, tc.id, md.ID, tc.desc)
		assert.NotEmpty(t, md.Model, fmt.Sprintf("%s: single model carries its definition", tc.desc))
	}
	assert.Equal(t, 2, store.Calls(mocks.OpModel))
}
