// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"encoding/json"
	"sort"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Reserved twin record keys.
const (
	IDKey       = "$dtId"
	ETagKey     = "$etag"
	MetadataKey = "$metadata"
	ModelKey    = "$model"
)

var (
	// ErrMalformedTwin indicates a twin record without an id or model.
	ErrMalformedTwin = errors.New("malformed twin record")

	// ErrMalformedRelationship indicates an incomplete relationship record.
	ErrMalformedRelationship = errors.New("malformed relationship record")

	validate = validator.New()
)

// Twin is an instance of a model.
type Twin struct {
	ID         string         `json:"id"`
	ModelID    string         `json:"model_id"`
	ETag       string         `json:"etag,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// RawTwin is a twin record as exchanged with the remote store.
type RawTwin struct {
	ID         string `validate:"required"`
	ETag       string
	ModelID    string `validate:"required"`
	Properties map[string]any
}

// Twin validates the record and converts it to a Twin.
func (rt RawTwin) Twin() (Twin, error) {
	if err := validate.Struct(rt); err != nil {
		return Twin{}, errors.Wrap(ErrMalformedTwin, err)
	}

	return Twin{
		ID:         rt.ID,
		ModelID:    rt.ModelID,
		ETag:       rt.ETag,
		Properties: rt.Properties,
	}, nil
}

// Raw converts the twin to its store record.
func (t Twin) Raw() RawTwin {
	return RawTwin{
		ID:         t.ID,
		ETag:       t.ETag,
		ModelID:    t.ModelID,
		Properties: t.Properties,
	}
}

// MarshalJSON writes the record using the store's reserved keys.
func (rt RawTwin) MarshalJSON() ([]byte, error) {
	rec := make(map[string]any, len(rt.Properties)+3)
	for k, v := range rt.Properties {
		rec[k] = v
	}
	rec[IDKey] = rt.ID
	if rt.ETag != "" {
		rec[ETagKey] = rt.ETag
	}
	rec[MetadataKey] = map[string]any{ModelKey: rt.ModelID}

	return json.Marshal(rec)
}

// UnmarshalJSON reads a store record. Keys starting with "$" are reserved
// and never end up in Properties.
func (rt *RawTwin) UnmarshalJSON(data []byte) error {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*rt = rawTwinFromRecord(rec)

	return nil
}

func rawTwinFromRecord(rec map[string]any) RawTwin {
	rt := RawTwin{Properties: map[string]any{}}
	rt.ID, _ = rec[IDKey].(string)
	rt.ETag, _ = rec[ETagKey].(string)
	if md, ok := rec[MetadataKey].(map[string]any); ok {
		rt.ModelID, _ = md[ModelKey].(string)
	}
	for k, v := range rec {
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		rt.Properties[k] = v
	}

	return rt
}

// flatten lifts every twin record found in a page of query results to the
// top level. Some query shapes (joins, projections) return twins nested in
// objects or arrays. Records are deduplicated by id, first occurrence wins;
// values that do not contain twin records are dropped.
func flatten(items []map[string]any) []map[string]any {
	seen := make(map[string]struct{})
	var ret []map[string]any

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if id, ok := val[IDKey].(string); ok {
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					ret = append(ret, val)
				}
				return
			}
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(val[k])
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}

	for _, item := range items {
		walk(item)
	}

	return ret
}

// Patch is a JSON Patch operation applied to a twin.
type Patch struct {
	Op    string `json:"op"              validate:"required,oneof=add replace remove"`
	Path  string `json:"path"            validate:"required,startswith=/"`
	Value any    `json:"value,omitempty"`
}

// ValidatePatches checks every operation of a twin update.
func ValidatePatches(patches []Patch) error {
	if len(patches) == 0 {
		return errors.Wrap(errors.ErrMalformedEntity, errors.New("empty patch"))
	}
	for _, p := range patches {
		if err := validate.Struct(p); err != nil {
			return errors.Wrap(errors.ErrMalformedEntity, err)
		}
	}

	return nil
}
