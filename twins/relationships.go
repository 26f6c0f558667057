// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"encoding/json"
	"fmt"

	"github.com/absmach/twinexplorer/pkg/errors"
)

// Reserved relationship record keys.
const (
	RelationshipIDKey   = "$relationshipId"
	SourceIDKey         = "$sourceId"
	TargetIDKey         = "$targetId"
	RelationshipNameKey = "$relationshipName"
	RelationshipLinkKey = "$relationshipLink"
)

// Direction selects which relationships of a twin are listed.
type Direction uint8

const (
	Outgoing Direction = iota
	Incoming
	All
)

var errDirection = errors.New("unknown relationship direction")

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case All:
		return "all"
	default:
		return fmt.Sprintf("direction(%d)", d)
	}
}

// ParseDirection parses the textual form of a Direction. Empty text is
// Outgoing.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "outgoing":
		return Outgoing, nil
	case "incoming":
		return Incoming, nil
	case "all":
		return All, nil
	default:
		return Outgoing, errors.Wrap(errDirection, errors.New(s))
	}
}

// RelationshipKey identifies a logical edge regardless of whether it was
// listed from its source or from its target.
type RelationshipKey struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Name     string `json:"name"`
}

func (k RelationshipKey) String() string {
	return k.SourceID + "|" + k.Name + "|" + k.TargetID
}

// Relationship is a named, directed edge between two twins. The id is unique
// per source twin only.
type Relationship struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Name       string         `json:"name"`
	ETag       string         `json:"etag,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Key returns the compound source, target and name key.
func (r Relationship) Key() RelationshipKey {
	return RelationshipKey{SourceID: r.SourceID, TargetID: r.TargetID, Name: r.Name}
}

// IDKey returns the source and relationship id key.
func (r Relationship) IDKey() string {
	return r.SourceID + "/" + r.ID
}

// Raw converts the relationship to its store record.
func (r Relationship) Raw() RawRelationship {
	return RawRelationship(r)
}

// RawRelationship is an outgoing relationship record.
type RawRelationship struct {
	ID         string `validate:"required"`
	SourceID   string `validate:"required"`
	TargetID   string `validate:"required"`
	Name       string `validate:"required"`
	ETag       string
	Properties map[string]any
}

// Relationship validates the record and converts it.
func (rr RawRelationship) Relationship() (Relationship, error) {
	if err := validate.Struct(rr); err != nil {
		return Relationship{}, errors.Wrap(ErrMalformedRelationship, err)
	}

	return Relationship(rr), nil
}

// MarshalJSON writes the record using the store's reserved keys.
func (rr RawRelationship) MarshalJSON() ([]byte, error) {
	rec := make(map[string]any, len(rr.Properties)+5)
	for k, v := range rr.Properties {
		rec[k] = v
	}
	rec[RelationshipIDKey] = rr.ID
	rec[SourceIDKey] = rr.SourceID
	rec[TargetIDKey] = rr.TargetID
	rec[RelationshipNameKey] = rr.Name
	if rr.ETag != "" {
		rec[ETagKey] = rr.ETag
	}

	return json.Marshal(rec)
}

// UnmarshalJSON reads a store record.
func (rr *RawRelationship) UnmarshalJSON(data []byte) error {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	ret := RawRelationship{Properties: map[string]any{}}
	ret.ID, _ = rec[RelationshipIDKey].(string)
	ret.SourceID, _ = rec[SourceIDKey].(string)
	ret.TargetID, _ = rec[TargetIDKey].(string)
	ret.Name, _ = rec[RelationshipNameKey].(string)
	ret.ETag, _ = rec[ETagKey].(string)
	for k, v := range rec {
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		ret.Properties[k] = v
	}
	*rr = ret

	return nil
}

// RawIncomingRelationship is the record listed by an incoming relationship
// query. It names the source but not the target, which is the queried twin.
type RawIncomingRelationship struct {
	ID       string `json:"$relationshipId"   validate:"required"`
	SourceID string `json:"$sourceId"         validate:"required"`
	Name     string `json:"$relationshipName" validate:"required"`
	Link     string `json:"$relationshipLink"`
}

// Relationship normalizes the record to an outgoing relationship targeting
// twinID.
func (ri RawIncomingRelationship) Relationship(twinID string) (Relationship, error) {
	if err := validate.Struct(ri); err != nil {
		return Relationship{}, errors.Wrap(ErrMalformedRelationship, err)
	}

	return Relationship{
		ID:       ri.ID,
		SourceID: ri.SourceID,
		TargetID: twinID,
		Name:     ri.Name,
	}, nil
}

// RelationshipPage is one page of a relationship listing. More is set while
// another part of the same listing is still to be delivered.
type RelationshipPage struct {
	Relationships []Relationship
	More          bool
}
