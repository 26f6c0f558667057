// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"fmt"
)

var primitives = map[string]struct{}{
	"boolean":         {},
	"byte":            {},
	"bytes":           {},
	"date":            {},
	"dateTime":        {},
	"decimal":         {},
	"double":          {},
	"duration":        {},
	"float":           {},
	"integer":         {},
	"long":            {},
	"short":           {},
	"string":          {},
	"time":            {},
	"unsignedByte":    {},
	"unsignedShort":   {},
	"unsignedInteger": {},
	"unsignedLong":    {},
	"uuid":            {},
	"point":           {},
	"lineString":      {},
	"polygon":         {},
	"multiPoint":      {},
	"multiLineString": {},
	"multiPolygon":    {},
}

// inferSchema resolves a raw schema value. The second result is false when
// the schema cannot be resolved. visiting guards against recursive schema
// references.
func (g *modelGraph) inferSchema(raw json.RawMessage, visiting map[string]bool) (Schema, bool) {
	if len(raw) == 0 {
		return Schema{}, false
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		if _, ok := primitives[id]; ok {
			return Schema{Kind: Primitive, Type: id}, true
		}
		ref, ok := g.schemas[id]
		if !ok || visiting[id] {
			return Schema{}, false
		}
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[id] = true
		defer delete(visiting, id)

		return g.inferSchema(ref, visiting)
	}

	var doc schemaDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schema{}, false
	}
	if doc.ID != "" {
		if visiting[doc.ID] {
			return Schema{}, false
		}
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[doc.ID] = true
		defer delete(visiting, doc.ID)
	}

	switch {
	case doc.Type.has(objectType):
		return Schema{Kind: Object, Fields: g.inferFields(doc.Fields, visiting)}, true
	case doc.Type.has(enumType):
		s := Schema{Kind: Enum, Type: doc.ValueSchema}
		for _, v := range doc.EnumValues {
			s.EnumValues = append(s.EnumValues, EnumValue{
				Name:        v.Name,
				Value:       v.EnumValue,
				DisplayName: string(v.DisplayName),
			})
		}
		return s, true
	case doc.Type.has(mapType):
		if doc.MapKey == nil || doc.MapValue == nil {
			return Schema{}, false
		}
		key, ok := g.inferField(*doc.MapKey, visiting)
		if !ok {
			return Schema{}, false
		}
		value, ok := g.inferField(*doc.MapValue, visiting)
		if !ok {
			return Schema{}, false
		}
		return Schema{Kind: Map, MapKey: &key, MapValue: &value}, true
	case doc.Type.has(arrayType):
		elem, ok := g.inferSchema(doc.ElementSchema, visiting)
		if !ok {
			return Schema{}, false
		}
		return Schema{Kind: Array, Element: &elem}, true
	}

	return Schema{}, false
}

func (g *modelGraph) inferField(f fieldDoc, visiting map[string]bool) (Field, bool) {
	s, ok := g.inferSchema(f.Schema, visiting)
	if !ok {
		return Field{}, false
	}

	return Field{Name: f.Name, DisplayName: string(f.DisplayName), Schema: s}, true
}

// inferFields resolves fields in declaration order, dropping the ones
// whose schema cannot be resolved.
func (g *modelGraph) inferFields(fields []fieldDoc, visiting map[string]bool) []Field {
	var ret []Field
	for _, f := range fields {
		if field, ok := g.inferField(f, visiting); ok {
			ret = append(ret, field)
		}
	}

	return ret
}

// PropertyDefault returns the value an editor shows for a property of the
// given schema. A nil current value yields the structural default. Any
// other value is returned as is, except that enum values are replaced
// with their display name.
func PropertyDefault(schema Schema, current any) any {
	switch schema.Kind {
	case Object:
		if current != nil {
			return current
		}
		ret := make(map[string]any, len(schema.Fields))
		for _, f := range schema.Fields {
			ret[f.Name] = PropertyDefault(f.Schema, nil)
		}
		return ret
	case Enum:
		if current == nil {
			if len(schema.EnumValues) == 0 {
				return ""
			}
			return schema.EnumValues[0].Value
		}
		for _, v := range schema.EnumValues {
			if fmt.Sprint(v.Value) != fmt.Sprint(current) {
				continue
			}
			if v.DisplayName != "" {
				return v.DisplayName
			}
			return v.Name
		}
		return current
	case Map:
		if current != nil {
			return current
		}
		return map[string]any{}
	case Array:
		if current != nil {
			return current
		}
		return []any{}
	default:
		if current != nil {
			return current
		}
		return ""
	}
}
