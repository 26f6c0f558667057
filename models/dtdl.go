// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/absmach/twinexplorer/pkg/errors"
)

// DTDL content and schema types.
const (
	interfaceType    = "Interface"
	propertyType     = "Property"
	telemetryType    = "Telemetry"
	relationshipType = "Relationship"
	componentType    = "Component"
	objectType       = "Object"
	enumType         = "Enum"
	mapType          = "Map"
	arrayType        = "Array"

	defaultLanguage = "en"
)

// typeList is a DTDL @type value, either a single type or a list of types
// with semantic annotations.
type typeList []string

func (tl *typeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*tl = typeList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*tl = list

	return nil
}

func (tl typeList) has(t string) bool {
	for _, v := range tl {
		if v == t {
			return true
		}
	}
	return false
}

// localized is a DTDL string that is either plain or a language map.
type localized string

func (l *localized) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = localized(plain)
		return nil
	}
	var langs map[string]string
	if err := json.Unmarshal(data, &langs); err != nil {
		return err
	}
	*l = localized(pickLanguage(langs))

	return nil
}

// pickLanguage returns the default language entry, or the entry of the
// first language in sorted order when the default is missing.
func pickLanguage(langs map[string]string) string {
	if v, ok := langs[defaultLanguage]; ok {
		return v
	}
	keys := make([]string, 0, len(langs))
	for k := range langs {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	return langs[keys[0]]
}

type interfaceDoc struct {
	ID          string            `json:"@id"`
	Type        typeList          `json:"@type"`
	DisplayName localized         `json:"displayName"`
	Description localized         `json:"description"`
	Extends     json.RawMessage   `json:"extends"`
	Contents    []contentDoc      `json:"contents"`
	Schemas     []json.RawMessage `json:"schemas"`
}

type contentDoc struct {
	Type        typeList        `json:"@type"`
	Name        string          `json:"name"`
	DisplayName localized       `json:"displayName"`
	Schema      json.RawMessage `json:"schema"`
	Target      string          `json:"target"`
	Writable    bool            `json:"writable"`
	Properties  []fieldDoc      `json:"properties"`
}

type fieldDoc struct {
	Name        string          `json:"name"`
	DisplayName localized       `json:"displayName"`
	Schema      json.RawMessage `json:"schema"`
}

type enumValueDoc struct {
	Name        string    `json:"name"`
	EnumValue   any       `json:"enumValue"`
	DisplayName localized `json:"displayName"`
}

type schemaDoc struct {
	ID            string          `json:"@id"`
	Type          typeList        `json:"@type"`
	Fields        []fieldDoc      `json:"fields"`
	ValueSchema   string          `json:"valueSchema"`
	EnumValues    []enumValueDoc  `json:"enumValues"`
	MapKey        *fieldDoc       `json:"mapKey"`
	MapValue      *fieldDoc       `json:"mapValue"`
	ElementSchema json.RawMessage `json:"elementSchema"`
}

// splitDocuments returns the interface documents held by doc, which is
// either a single interface or an array of interfaces.
func splitDocuments(doc json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []json.RawMessage{trimmed}, nil
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

// extendsList decodes an extends value: a model id, an inline interface or
// a list of either.
func extendsList(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, nil
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, err
		}
	} else {
		items = []json.RawMessage{trimmed}
	}

	var ids []string
	var inline []json.RawMessage
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var head struct {
			ID string `json:"@id"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, nil, err
		}
		ids = append(ids, head.ID)
		inline = append(inline, item)
	}

	return ids, inline, nil
}

// schemaRef returns the model id named by a component schema.
func schemaRef(raw json.RawMessage) (string, json.RawMessage) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var head struct {
		ID string `json:"@id"`
	}
	if err := json.Unmarshal(raw, &head); err == nil {
		return head.ID, raw
	}

	return "", nil
}

// Documents splits docs into top level interface documents and returns
// their ids in declaration order.
func Documents(docs []json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	var ids []string
	byID := make(map[string]json.RawMessage)
	for _, doc := range docs {
		items, err := splitDocuments(doc)
		if err != nil {
			return nil, nil, errors.Wrap(ErrMalformedModel, err)
		}
		for _, item := range items {
			var head struct {
				ID string `json:"@id"`
			}
			if err := json.Unmarshal(item, &head); err != nil {
				return nil, nil, errors.Wrap(ErrMalformedModel, err)
			}
			if head.ID == "" {
				return nil, nil, errors.Wrap(ErrMalformedModel, errors.New("missing @id"))
			}
			if _, ok := byID[head.ID]; ok {
				return nil, nil, errors.Wrap(ErrMalformedModel, fmt.Errorf("%s: duplicate model", head.ID))
			}
			byID[head.ID] = item
			ids = append(ids, head.ID)
		}
	}

	return ids, byID, nil
}
