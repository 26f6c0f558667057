// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package models

import "github.com/absmach/twinexplorer/pkg/errors"

var (
	// ErrNotLoaded indicates a query issued before the model graph was loaded.
	ErrNotLoaded = errors.New("model graph is not loaded")

	// ErrCycle indicates a cycle through extends or component references.
	ErrCycle = errors.New("model dependency cycle")

	// ErrMalformedModel indicates a model document that cannot be decoded.
	ErrMalformedModel = errors.New("malformed model document")

	// ErrUnknownModel indicates a model that is neither loaded nor referenced.
	ErrUnknownModel = errors.New("unknown model")
)

// SchemaKind tells how a Schema is structured.
type SchemaKind string

const (
	Primitive SchemaKind = "primitive"
	Object    SchemaKind = "object"
	Enum      SchemaKind = "enum"
	Map       SchemaKind = "map"
	Array     SchemaKind = "array"
)

// Schema is the resolved schema of a property, telemetry or field.
type Schema struct {
	Kind SchemaKind `json:"kind"`

	// Type is the primitive type, or the value schema of an Enum.
	Type       string      `json:"type,omitempty"`
	Fields     []Field     `json:"fields,omitempty"`
	EnumValues []EnumValue `json:"enum_values,omitempty"`
	MapKey     *Field      `json:"map_key,omitempty"`
	MapValue   *Field      `json:"map_value,omitempty"`
	Element    *Schema     `json:"element,omitempty"`
}

// Field is a named member of an Object or Map schema.
type Field struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Schema      Schema `json:"schema"`
}

// EnumValue is a member of an Enum schema.
type EnumValue struct {
	Name        string `json:"name"`
	Value       any    `json:"value"`
	DisplayName string `json:"display_name,omitempty"`
}

// Content is a property or telemetry declaration. Extended is set when the
// declaration comes from a base model.
type Content struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Schema      Schema `json:"schema"`
	Writable    bool   `json:"writable,omitempty"`
	Extended    bool   `json:"extended,omitempty"`
	DefinedIn   string `json:"defined_in"`
}

// RelationshipDecl is a relationship declaration. An empty Target accepts
// twins of any model.
type RelationshipDecl struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Target      string  `json:"target,omitempty"`
	Properties  []Field `json:"properties,omitempty"`
	Extended    bool    `json:"extended,omitempty"`
	DefinedIn   string  `json:"defined_in"`
}

// Component is an embedded model.
type Component struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Schema      string `json:"schema"`
	Extended    bool   `json:"extended,omitempty"`
	DefinedIn   string `json:"defined_in"`
}

// Model is a model flattened with all its transitive bases. Defined is
// false for models that are referenced but whose document is not loaded.
type Model struct {
	ID            string             `json:"id"`
	DisplayName   string             `json:"display_name,omitempty"`
	Description   string             `json:"description,omitempty"`
	Defined       bool               `json:"defined"`
	Bases         []string           `json:"bases,omitempty"`
	Properties    []Content          `json:"properties,omitempty"`
	Telemetries   []Content          `json:"telemetries,omitempty"`
	Relationships []RelationshipDecl `json:"relationships,omitempty"`
	Components    []Component        `json:"components,omitempty"`
}
