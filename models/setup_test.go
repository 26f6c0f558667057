// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models_test

import (
	"encoding/json"
	"testing"

	"github.com/absmach/twinexplorer/models"
	"github.com/stretchr/testify/require"
)

const (
	spaceID      = "dtmi:example:Space;1"
	buildingID   = "dtmi:example:Building;1"
	floorID      = "dtmi:example:Floor;1"
	roomID       = "dtmi:example:Room;1"
	meetingID    = "dtmi:example:MeetingRoom;1"
	thermostatID = "dtmi:example:Thermostat;1"
	sensorID     = "dtmi:example:Sensor;1"
)

var (
	spaceDoc = `{
		"@id": "dtmi:example:Space;1",
		"@type": "Interface",
		"@context": "dtmi:dtdl:context;2",
		"displayName": {"en": "Space", "de": "Raum"},
		"description": "Any space",
		"contents": [
			{"@type": "Property", "name": "name", "schema": "string", "writable": true},
			{"@type": "Relationship", "name": "relatedTo"}
		]
	}`
	buildingDoc = `{
		"@id": "dtmi:example:Building;1",
		"@type": "Interface",
		"displayName": "Building",
		"extends": "dtmi:example:Space;1",
		"contents": [
			{"@type": "Relationship", "name": "hasFloor", "target": "dtmi:example:Floor;1"},
			{"@type": "Property", "name": "address", "schema": {
				"@type": "Object",
				"fields": [
					{"name": "street", "schema": "string"},
					{"name": "number", "schema": "integer"},
					{"name": "geo", "schema": "dtmi:example:unknown;1"}
				]
			}}
		]
	}`
	floorDoc = `{
		"@id": "dtmi:example:Floor;1",
		"@type": "Interface",
		"displayName": "Floor",
		"extends": ["dtmi:example:Space;1"],
		"contents": [
			{"@type": "Relationship", "name": "contains", "target": "dtmi:example:Room;1",
			 "properties": [{"name": "since", "schema": "dateTime"}]},
			{"@type": "Property", "name": "level", "schema": "integer"}
		]
	}`
	roomDoc = `{
		"@id": "dtmi:example:Room;1",
		"@type": "Interface",
		"displayName": "Room",
		"extends": "dtmi:example:Space;1",
		"schemas": [
			{"@id": "dtmi:example:Occupancy;1", "@type": "Enum", "valueSchema": "integer",
			 "enumValues": [
				{"name": "free", "enumValue": 0, "displayName": "Free"},
				{"name": "busy", "enumValue": 1, "displayName": "Busy"}
			 ]}
		],
		"contents": [
			{"@type": "Property", "name": "name", "schema": "string", "displayName": "Room name"},
			{"@type": ["Property", "Temperature"], "name": "temperature", "schema": "double", "unit": "degreeCelsius"},
			{"@type": "Property", "name": "occupancy", "schema": "dtmi:example:Occupancy;1"},
			{"@type": "Property", "name": "tags", "schema": {"@type": "Array", "elementSchema": "string"}},
			{"@type": "Property", "name": "limits", "schema": {
				"@type": "Map",
				"mapKey": {"name": "kind", "schema": "string"},
				"mapValue": {"name": "value", "schema": "double"}
			}},
			{"@type": "Property", "name": "broken", "schema": {"@type": "Array", "elementSchema": "dtmi:example:missing;1"}},
			{"@type": "Telemetry", "name": "humidity", "schema": "double"},
			{"@type": "Component", "name": "thermostat", "schema": "dtmi:example:Thermostat;1"}
		]
	}`
	meetingDoc = `{
		"@id": "dtmi:example:MeetingRoom;1",
		"@type": "Interface",
		"extends": "dtmi:example:Room;1",
		"contents": [
			{"@type": "Property", "name": "seats", "schema": "integer"}
		]
	}`
	thermostatDoc = `{
		"@id": "dtmi:example:Thermostat;1",
		"@type": "Interface",
		"displayName": "Thermostat",
		"contents": [
			{"@type": "Property", "name": "setPoint", "schema": "double", "writable": true}
		]
	}`
	sensorDoc = `{
		"@id": "dtmi:example:Sensor;1",
		"@type": "Interface",
		"contents": [
			{"@type": "Relationship", "name": "observes"}
		]
	}`
)

func docs(raw ...string) []json.RawMessage {
	ret := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		ret = append(ret, json.RawMessage(r))
	}
	return ret
}

func allDocs() []json.RawMessage {
	return docs(spaceDoc, buildingDoc, floorDoc, roomDoc, meetingDoc, thermostatDoc, sensorDoc)
}

func newLoaded(t *testing.T, raw ...json.RawMessage) *models.Resolver {
	r := models.New(nil)
	if len(raw) == 0 {
		raw = allDocs()
	}
	require.Nil(t, r.InitializeWithModels(raw), "unexpected error loading models")
	return r
}

// chain returns a document for id extending base, if any.
func chain(id, base string) json.RawMessage {
	doc := map[string]any{
		"@id":   id,
		"@type": "Interface",
	}
	if base != "" {
		doc["extends"] = base
	}
	data, _ := json.Marshal(doc)
	return data
}
