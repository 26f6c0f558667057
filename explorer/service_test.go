// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package explorer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/logger"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/pkg/uuid"
	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	spaceID    = "dtmi:example:Space;1"
	floorID    = "dtmi:example:Floor;1"
	roomID     = "dtmi:example:Room;1"
	sensorID   = "dtmi:example:Sensor;1"
	query      = "SELECT * FROM DIGITALTWINS"
	validFloor = "floor-1"
)

var (
	spaceDoc = json.RawMessage(`{
		"@id": "dtmi:example:Space;1",
		"@type": "Interface",
		"displayName": "Space",
		"contents": [{"@type": "Property", "name": "name", "schema": "string"}]
	}`)
	floorDoc = json.RawMessage(`{
		"@id": "dtmi:example:Floor;1",
		"@type": "Interface",
		"extends": "dtmi:example:Space;1",
		"contents": [
			{"@type": "Relationship", "name": "contains", "target": "dtmi:example:Room;1"},
			{"@type": "Property", "name": "level", "schema": "integer"}
		]
	}`)
	roomDoc = json.RawMessage(`{
		"@id": "dtmi:example:Room;1",
		"@type": "Interface",
		"extends": "dtmi:example:Space;1",
		"contents": [
			{"@type": "Component", "name": "sensor", "schema": "dtmi:example:Sensor;1"},
			{"@type": "Property", "name": "temperature", "schema": "double"}
		]
	}`)
	sensorDoc = json.RawMessage(`{"@id": "dtmi:example:Sensor;1", "@type": "Interface"}`)
)

func newService(t *testing.T) (explorer.Service, *mocks.Store) {
	store := mocks.NewStore(2)
	_, err := store.AddModels(context.Background(), []json.RawMessage{spaceDoc, sensorDoc, floorDoc, roomDoc})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	store.Seed(
		[]twins.Twin{
			{ID: validFloor, ModelID: floorID, Properties: map[string]any{"level": 1}},
			{ID: "room-1", ModelID: roomID},
			{ID: "room-2", ModelID: roomID},
		},
		[]twins.Relationship{
			{ID: "r1", SourceID: validFloor, TargetID: "room-1", Name: "contains"},
		},
	)
	client := twins.NewClient(store)
	svc := explorer.New(client, graph.NewCanvas(nil), uuid.NewMock(), logger.NewMock())

	return svc, store
}

func TestLoadGraph(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{Direction: twins.All})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, 3, res.Twins)

	snap := svc.Graph(context.Background())
	assert.Len(t, snap.Twins, 3)
	assert.Len(t, snap.Relationships, 1)

	err = svc.Select(context.Background(), "room-1")
	assert.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, "room-1", svc.Graph(context.Background()).Selected)

	err = svc.Select(context.Background(), "room-9")
	assert.True(t, errors.Contains(err, errors.ErrNotFound), fmt.Sprintf("expected %s got %s", errors.ErrNotFound, err))

	res, err = svc.Expand(context.Background(), []string{validFloor}, graph.LoadOptions{})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, 1, res.Relationships)
	svc.Cancel(context.Background())
}

func TestHighlightAndFilter(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	cases := []struct {
		desc        string
		ids         []string
		highlighted []string
		err         error
	}{
		{desc: "rendered twins", ids: []string{"room-2", validFloor}, highlighted: []string{validFloor, "room-2"}},
		{desc: "twin that is not rendered", ids: []string{"room-1", "room-9"}, highlighted: []string{validFloor, "room-2"}, err: errors.ErrNotFound},
		{desc: "replace", ids: []string{"room-1"}, highlighted: []string{"room-1"}},
		{desc: "clear", ids: nil, highlighted: nil},
	}

	for _, tc := range cases {
		err := svc.Highlight(context.Background(), tc.ids)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		assert.Equal(t, tc.highlighted, svc.Graph(context.Background()).Highlighted, tc.desc)
	}

	require.Nil(t, svc.Highlight(context.Background(), []string{"room-1"}))
	svc.SetFilter(context.Background(), "room")
	assert.Equal(t, "room", svc.Graph(context.Background()).Filter)

	_, err = svc.LoadGraph(context.Background(), query, graph.LoadOptions{})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	snap := svc.Graph(context.Background())
	assert.Empty(t, snap.Highlighted, "load resets the highlight")
	assert.Empty(t, snap.Filter, "load resets the filter")
}

func TestCreateTwin(t *testing.T) {
	cases := []struct {
		desc    string
		modelID string
		id      string
		props   map[string]any
		twin    twins.Twin
		err     error
	}{
		{
			desc:    "generated id with components",
			modelID: roomID,
			props:   map[string]any{"temperature": 21.5},
			twin: twins.Twin{
				ID:      uuid.Prefix + "000000000001",
				ModelID: roomID,
				Properties: map[string]any{
					"sensor":      map[string]any{twins.MetadataKey: map[string]any{}},
					"temperature": 21.5,
				},
			},
		},
		{
			desc:    "given id",
			modelID: floorID,
			id:      "floor-2",
			props:   map[string]any{"level": 3},
			twin:    twins.Twin{ID: "floor-2", ModelID: floorID, Properties: map[string]any{"level": 3}},
		},
		{
			desc:    "unknown model",
			modelID: "dtmi:example:Nothing;1",
			id:      "x",
			err:     models.ErrUnknownModel,
		},
	}

	for _, tc := range cases {
		svc, _ := newService(t)
		tw, err := svc.CreateTwin(context.Background(), tc.modelID, tc.id, tc.props)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		assert.Equal(t, tc.twin.ID, tw.ID, tc.desc)
		assert.Equal(t, tc.twin.ModelID, tw.ModelID, tc.desc)
		assert.Equal(t, tc.twin.Properties, tw.Properties, tc.desc)
		assert.Len(t, svc.Graph(context.Background()).Twins, 1, fmt.Sprintf("%s: created twin is rendered", tc.desc))
	}
}

func TestTwinTemplate(t *testing.T) {
	svc, _ := newService(t)

	props, err := svc.TwinTemplate(context.Background(), roomID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, map[string]any{
		"name":        "",
		"temperature": "",
		"sensor":      map[string]any{twins.MetadataKey: map[string]any{}},
	}, props)
}

func TestUpdateTwin(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	tw, err := svc.UpdateTwin(context.Background(), validFloor, []twins.Patch{{Op: "replace", Path: "/level", Value: 2}})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, 2, tw.Properties["level"])

	for _, rendered := range svc.Graph(context.Background()).Twins {
		if rendered.ID == validFloor {
			assert.Equal(t, 2, rendered.Properties["level"], "rendered twin is updated")
		}
	}

	_, err = svc.UpdateTwin(context.Background(), "missing", []twins.Patch{{Op: "replace", Path: "/level", Value: 2}})
	assert.True(t, errors.Contains(err, errors.ErrNotFound), fmt.Sprintf("expected %s got %s", errors.ErrNotFound, err))
}

func TestDeleteTwins(t *testing.T) {
	svc, store := newService(t)
	_, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{Direction: twins.All})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	err = svc.DeleteTwins(context.Background(), []string{validFloor, "room-1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []string{"room-2"}, store.Twins())
	assert.Equal(t, 0, store.RelationshipCount())

	snap := svc.Graph(context.Background())
	assert.Len(t, snap.Twins, 1)
	assert.Empty(t, snap.Relationships)

	err = svc.DeleteTwins(context.Background(), []string{"missing"})
	assert.True(t, errors.Contains(err, errors.ErrNotFound), fmt.Sprintf("expected %s got %s", errors.ErrNotFound, err))
}

func TestRelationships(t *testing.T) {
	cases := []struct {
		desc   string
		source string
		target string
		name   string
		err    error
	}{
		{desc: "declared relationship", source: validFloor, target: "room-2", name: "contains"},
		{desc: "undeclared name", source: validFloor, target: "room-2", name: "feeds", err: explorer.ErrRelationshipNotAllowed},
		{desc: "wrong target model", source: "room-1", target: "room-2", name: "contains", err: explorer.ErrRelationshipNotAllowed},
		{desc: "missing source", source: "missing", target: "room-2", name: "contains", err: errors.ErrNotFound},
	}

	for _, tc := range cases {
		svc, store := newService(t)
		_, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{})
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))

		rel, err := svc.CreateRelationship(context.Background(), tc.source, tc.target, tc.name, nil)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			assert.Equal(t, 1, store.RelationshipCount(), tc.desc)
			continue
		}
		assert.Equal(t, 2, store.RelationshipCount(), tc.desc)
		assert.Len(t, svc.Graph(context.Background()).Relationships, 2, tc.desc)

		err = svc.DeleteRelationship(context.Background(), rel.SourceID, rel.ID)
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Len(t, svc.Graph(context.Background()).Relationships, 1, tc.desc)
	}
}

func TestRelationship(t *testing.T) {
	cases := []struct {
		desc   string
		source string
		id     string
		target string
		err    error
	}{
		{desc: "existing relationship", source: validFloor, id: "r1", target: "room-1"},
		{desc: "relationship of another twin", source: "room-1", id: "r1", err: errors.ErrNotFound},
		{desc: "missing relationship", source: validFloor, id: "r9", err: errors.ErrNotFound},
	}

	svc, _ := newService(t)
	for _, tc := range cases {
		rel, err := svc.Relationship(context.Background(), tc.source, tc.id)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		assert.Equal(t, tc.target, rel.TargetID, tc.desc)
	}
}

func TestAllowedRelationships(t *testing.T) {
	svc, _ := newService(t)

	cases := []struct {
		desc   string
		source string
		target string
		names  []string
	}{
		{desc: "floor to room", source: validFloor, target: "room-1", names: []string{"contains"}},
		{desc: "floor to anything", source: validFloor, names: []string{"contains"}},
		{desc: "room to floor", source: "room-1", target: validFloor, names: nil},
	}

	for _, tc := range cases {
		decls, err := svc.AllowedRelationships(context.Background(), tc.source, tc.target)
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		var names []string
		for _, d := range decls {
			names = append(names, d.Name)
		}
		assert.Equal(t, tc.names, names, tc.desc)
	}
}

func TestUploadModels(t *testing.T) {
	cases := []struct {
		desc  string
		docs  []json.RawMessage
		order []string
		err   error
	}{
		{
			desc:  "dependents after their bases",
			docs:  []json.RawMessage{roomDoc, floorDoc, sensorDoc, spaceDoc},
			order: []string{spaceID, sensorID, roomID, floorID},
		},
		{
			desc:  "document array",
			docs:  []json.RawMessage{json.RawMessage(`[` + string(floorDoc) + `,` + string(spaceDoc) + `]`)},
			order: []string{spaceID, floorID},
		},
		{desc: "empty upload", err: explorer.ErrEmptyModelSet},
		{desc: "malformed", docs: []json.RawMessage{json.RawMessage(`{"@type": "Interface"}`)}, err: models.ErrMalformedModel},
		{
			desc: "cycle",
			docs: []json.RawMessage{
				json.RawMessage(`{"@id": "dtmi:example:A;1", "extends": "dtmi:example:B;1"}`),
				json.RawMessage(`{"@id": "dtmi:example:B;1", "extends": "dtmi:example:A;1"}`),
			},
			err: models.ErrCycle,
		},
	}

	for _, tc := range cases {
		store := mocks.NewStore(0)
		svc := explorer.New(twins.NewClient(store), graph.NewCanvas(nil), uuid.NewMock(), logger.NewMock())

		uploaded, err := svc.UploadModels(context.Background(), tc.docs)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			assert.Empty(t, store.Models(), tc.desc)
			continue
		}
		var ids []string
		for _, md := range uploaded {
			ids = append(ids, md.ID)
		}
		assert.Equal(t, tc.order, ids, tc.desc)
	}
}

func TestModels(t *testing.T) {
	svc, _ := newService(t)

	all, err := svc.Models(context.Background())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, all, 4)

	m, err := svc.Model(context.Background(), floorID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []string{spaceID}, m.Bases)

	md, err := svc.ModelDocument(context.Background(), floorID)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, floorID, md.ID)
	assert.JSONEq(t, string(floorDoc), string(md.Model))

	_, err = svc.ModelDocument(context.Background(), "dtmi:example:Nothing;1")
	assert.True(t, errors.Contains(err, errors.ErrNotFound), fmt.Sprintf("expected %s got %s", errors.ErrNotFound, err))

	order, err := svc.ModelOrder(context.Background(), []string{roomID, floorID, sensorID, spaceID})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []string{spaceID, sensorID, roomID, floorID}, order)
}

func TestDeleteModels(t *testing.T) {
	svc, store := newService(t)

	err := svc.DeleteModel(context.Background(), spaceID)
	assert.True(t, errors.Contains(err, errors.ErrConflict), fmt.Sprintf("expected %s got %s", errors.ErrConflict, err))

	require.Nil(t, svc.DeleteModel(context.Background(), floorID))
	all, err := svc.Models(context.Background())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Len(t, all, 3, "deleting a model reloads the model graph")

	deleted, err := svc.DeleteAllModels(context.Background())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, []string{roomID, sensorID, spaceID}, deleted)
	assert.Empty(t, store.Models())
}

func TestClearCache(t *testing.T) {
	store := mocks.NewStore(0)
	_, err := store.AddModels(context.Background(), []json.RawMessage{spaceDoc})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	client := twins.NewCachedClient(twins.NewClient(store), twins.NewMemoryCache())
	svc := explorer.New(client, graph.NewCanvas(nil), uuid.NewMock(), logger.NewMock())

	_, err = svc.Models(context.Background())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	calls := store.Calls(mocks.OpListModels)

	require.Nil(t, svc.ClearCache(context.Background()))
	_, err = svc.Models(context.Background())
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Greater(t, store.Calls(mocks.OpListModels), calls)
}
