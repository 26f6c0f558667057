// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

// Store operation names used for failure injection and call counting.
const (
	OpQueryTwins                = "query_twins"
	OpListRelationships         = "list_relationships"
	OpListIncomingRelationships = "list_incoming_relationships"
	OpListModels                = "list_models"
	OpTwin                      = "twin"
	OpAddTwin                   = "add_twin"
	OpUpdateTwin                = "update_twin"
	OpDeleteTwin                = "delete_twin"
	OpRelationship              = "relationship"
	OpAddRelationship           = "add_relationship"
	OpDeleteRelationship        = "delete_relationship"
	OpModel                     = "model"
	OpAddModels                 = "add_models"
	OpDeleteModel               = "delete_model"
)

var _ twins.Store = (*Store)(nil)

// Store is an in-memory twins.Store. Every listing returns at most PageSize
// items per page. Unless a result was registered with SetQueryResult, any
// query returns all twins ordered by id.
type Store struct {
	mu       sync.Mutex
	pageSize int
	etag     int
	twins    map[string]twins.RawTwin
	rels     map[string]map[string]twins.RawRelationship
	models   map[string]twins.ModelData
	queries  map[string][]map[string]any
	failures map[string]error
	calls    map[string]int
	hook     func(op, id string)
}

// NewStore creates an empty in-memory store. A pageSize lower than 1 means
// a single page per listing.
func NewStore(pageSize int) *Store {
	return &Store{
		pageSize: pageSize,
		twins:    make(map[string]twins.RawTwin),
		rels:     make(map[string]map[string]twins.RawRelationship),
		models:   make(map[string]twins.ModelData),
		queries:  make(map[string][]map[string]any),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Fail makes op fail with err for the given id, or for every id when id is
// empty. A nil err removes the failure.
func (s *Store) Fail(op, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op+":"+id)
		return
	}
	s.failures[op+":"+id] = err
}

// Calls returns how many times op was called.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

// OnCall registers a hook run before every operation, outside the store lock.
func (s *Store) OnCall(hook func(op, id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hook = hook
}

// SetQueryResult registers raw result items returned for query.
func (s *Store) SetQueryResult(query string, items []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries[query] = items
}

// Seed stores twins and relationships without validation.
func (s *Store) Seed(tws []twins.Twin, rels []twins.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tw := range tws {
		s.twins[tw.ID] = tw.Raw()
	}
	for _, rel := range rels {
		s.putRelationship(rel.Raw())
	}
}

func (s *Store) enter(op, id string) error {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hook
	err, ok := s.failures[op+":"+id]
	if !ok {
		err = s.failures[op+":"]
	}
	s.mu.Unlock()

	if hook != nil {
		hook(op, id)
	}

	return err
}

func (s *Store) QueryTwins(ctx context.Context, query, continuationToken string) (twins.QueryPage, error) {
	if err := s.enter(OpQueryTwins, query); err != nil {
		return twins.QueryPage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.queries[query]
	if !ok {
		for _, id := range sortedKeys(s.twins) {
			rec, err := record(s.twins[id])
			if err != nil {
				return twins.QueryPage{}, err
			}
			items = append(items, rec)
		}
	}

	start, end, next, err := s.window(len(items), continuationToken)
	if err != nil {
		return twins.QueryPage{}, err
	}

	return twins.QueryPage{Items: items[start:end], ContinuationToken: next}, nil
}

func (s *Store) ListRelationships(ctx context.Context, twinID, nextLink string) (twins.RelationshipsPage, error) {
	if err := s.enter(OpListRelationships, twinID); err != nil {
		return twins.RelationshipsPage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.twins[twinID]; !ok {
		return twins.RelationshipsPage{}, errors.ErrNotFound
	}
	var items []twins.RawRelationship
	for _, id := range sortedKeys(s.rels[twinID]) {
		items = append(items, s.rels[twinID][id])
	}

	start, end, next, err := s.window(len(items), nextLink)
	if err != nil {
		return twins.RelationshipsPage{}, err
	}

	return twins.RelationshipsPage{Items: items[start:end], NextLink: next}, nil
}

func (s *Store) ListIncomingRelationships(ctx context.Context, twinID, nextLink string) (twins.IncomingRelationshipsPage, error) {
	if err := s.enter(OpListIncomingRelationships, twinID); err != nil {
		return twins.IncomingRelationshipsPage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.twins[twinID]; !ok {
		return twins.IncomingRelationshipsPage{}, errors.ErrNotFound
	}
	var items []twins.RawIncomingRelationship
	for _, src := range sortedKeys(s.rels) {
		for _, id := range sortedKeys(s.rels[src]) {
			rel := s.rels[src][id]
			if rel.TargetID != twinID {
				continue
			}
			items = append(items, twins.RawIncomingRelationship{
				ID:       rel.ID,
				SourceID: rel.SourceID,
				Name:     rel.Name,
				Link:     fmt.Sprintf("/digitaltwins/%s/relationships/%s", rel.SourceID, rel.ID),
			})
		}
	}

	start, end, next, err := s.window(len(items), nextLink)
	if err != nil {
		return twins.IncomingRelationshipsPage{}, err
	}

	return twins.IncomingRelationshipsPage{Items: items[start:end], NextLink: next}, nil
}

func (s *Store) ListModels(ctx context.Context, includeDefinitions bool, nextLink string) (twins.ModelsPage, error) {
	if err := s.enter(OpListModels, ""); err != nil {
		return twins.ModelsPage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []twins.ModelData
	for _, id := range sortedKeys(s.models) {
		md := s.models[id]
		if !includeDefinitions {
			md.Model = nil
		}
		items = append(items, md)
	}

	start, end, next, err := s.window(len(items), nextLink)
	if err != nil {
		return twins.ModelsPage{}, err
	}

	return twins.ModelsPage{Items: items[start:end], NextLink: next}, nil
}

func (s *Store) Twin(ctx context.Context, id string) (twins.RawTwin, error) {
	if err := s.enter(OpTwin, id); err != nil {
		return twins.RawTwin{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tw, ok := s.twins[id]
	if !ok {
		return twins.RawTwin{}, errors.ErrNotFound
	}

	return tw, nil
}

func (s *Store) AddTwin(ctx context.Context, twin twins.RawTwin) (twins.RawTwin, error) {
	if err := s.enter(OpAddTwin, twin.ID); err != nil {
		return twins.RawTwin{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[twin.ModelID]; !ok && len(s.models) > 0 {
		return twins.RawTwin{}, errors.Wrap(errors.ErrMalformedEntity, fmt.Errorf("unknown model %s", twin.ModelID))
	}
	twin.ETag = s.nextETag()
	s.twins[twin.ID] = twin

	return twin, nil
}

func (s *Store) UpdateTwin(ctx context.Context, id string, patches []twins.Patch) error {
	if err := s.enter(OpUpdateTwin, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tw, ok := s.twins[id]
	if !ok {
		return errors.ErrNotFound
	}
	props := copyMap(tw.Properties)
	for _, p := range patches {
		if err := applyPatch(props, p); err != nil {
			return err
		}
	}
	tw.Properties = props
	tw.ETag = s.nextETag()
	s.twins[id] = tw

	return nil
}

func (s *Store) DeleteTwin(ctx context.Context, id string) error {
	if err := s.enter(OpDeleteTwin, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.twins[id]; !ok {
		return errors.ErrNotFound
	}
	if len(s.rels[id]) > 0 {
		return errors.ErrConflict
	}
	for _, out := range s.rels {
		for _, rel := range out {
			if rel.TargetID == id {
				return errors.ErrConflict
			}
		}
	}
	delete(s.twins, id)

	return nil
}

func (s *Store) Relationship(ctx context.Context, sourceID, id string) (twins.RawRelationship, error) {
	if err := s.enter(OpRelationship, sourceID+"/"+id); err != nil {
		return twins.RawRelationship{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rel, ok := s.rels[sourceID][id]
	if !ok {
		return twins.RawRelationship{}, errors.ErrNotFound
	}

	return rel, nil
}

func (s *Store) AddRelationship(ctx context.Context, rel twins.RawRelationship) (twins.RawRelationship, error) {
	if err := s.enter(OpAddRelationship, rel.SourceID+"/"+rel.ID); err != nil {
		return twins.RawRelationship{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.twins[rel.SourceID]; !ok {
		return twins.RawRelationship{}, errors.ErrNotFound
	}
	if _, ok := s.twins[rel.TargetID]; !ok {
		return twins.RawRelationship{}, errors.ErrNotFound
	}
	rel.ETag = s.nextETag()
	s.putRelationship(rel)

	return rel, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, sourceID, id string) error {
	if err := s.enter(OpDeleteRelationship, sourceID+"/"+id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rels[sourceID][id]; !ok {
		return errors.ErrNotFound
	}
	delete(s.rels[sourceID], id)

	return nil
}

func (s *Store) Model(ctx context.Context, id string) (twins.ModelData, error) {
	if err := s.enter(OpModel, id); err != nil {
		return twins.ModelData{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	md, ok := s.models[id]
	if !ok {
		return twins.ModelData{}, errors.ErrNotFound
	}

	return md, nil
}

func (s *Store) AddModels(ctx context.Context, docs []json.RawMessage) ([]twins.ModelData, error) {
	if err := s.enter(OpAddModels, ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]twins.ModelData, len(docs))
	var ids []string
	for _, doc := range docs {
		var head modelHead
		if err := json.Unmarshal(doc, &head); err != nil {
			return nil, errors.Wrap(errors.ErrMalformedEntity, err)
		}
		if head.ID == "" {
			return nil, errors.ErrMalformedEntity
		}
		if _, ok := s.models[head.ID]; ok {
			return nil, errors.ErrConflict
		}
		for _, dep := range head.dependencies() {
			_, stored := s.models[dep]
			_, uploaded := batch[dep]
			if !stored && !uploaded {
				return nil, errors.Wrap(errors.ErrMalformedEntity, fmt.Errorf("%s depends on missing model %s", head.ID, dep))
			}
		}
		md := twins.ModelData{ID: head.ID, Model: append(json.RawMessage{}, doc...)}
		if name, ok := head.DisplayName.(string); ok {
			md.DisplayName = map[string]string{"en": name}
		}
		batch[head.ID] = md
		ids = append(ids, head.ID)
	}

	ret := make([]twins.ModelData, 0, len(ids))
	for _, id := range ids {
		s.models[id] = batch[id]
		ret = append(ret, batch[id])
	}

	return ret, nil
}

func (s *Store) DeleteModel(ctx context.Context, id string) error {
	if err := s.enter(OpDeleteModel, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return errors.ErrNotFound
	}
	for other, md := range s.models {
		if other == id {
			continue
		}
		var head modelHead
		if err := json.Unmarshal(md.Model, &head); err != nil {
			continue
		}
		for _, dep := range head.dependencies() {
			if dep == id {
				return errors.Wrap(errors.ErrConflict, fmt.Errorf("model %s is referenced by %s", id, other))
			}
		}
	}
	delete(s.models, id)

	return nil
}

// Twins returns the ids of stored twins.
func (s *Store) Twins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedKeys(s.twins)
}

// Models returns the ids of stored models.
func (s *Store) Models() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedKeys(s.models)
}

// RelationshipCount returns the number of stored relationships.
func (s *Store) RelationshipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, out := range s.rels {
		n += len(out)
	}

	return n
}

func (s *Store) putRelationship(rel twins.RawRelationship) {
	if s.rels[rel.SourceID] == nil {
		s.rels[rel.SourceID] = make(map[string]twins.RawRelationship)
	}
	s.rels[rel.SourceID][rel.ID] = rel
}

func (s *Store) nextETag() string {
	s.etag++
	return fmt.Sprintf(`W/"%d"`, s.etag)
}

// window returns the slice bounds of the page starting at token and the
// token of the next page.
func (s *Store) window(total int, token string) (int, int, string, error) {
	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > total {
			return 0, 0, "", errors.Wrap(errors.ErrMalformedEntity, fmt.Errorf("invalid continuation %q", token))
		}
		start = n
	}
	end := total
	if s.pageSize > 0 && start+s.pageSize < total {
		end = start + s.pageSize
	}
	next := ""
	if end < total {
		next = strconv.Itoa(end)
	}

	return start, end, next, nil
}

type modelHead struct {
	ID          string `json:"@id"`
	DisplayName any    `json:"displayName"`
	Extends     any    `json:"extends"`
	Contents    []struct {
		Type   any `json:"@type"`
		Schema any `json:"schema"`
	} `json:"contents"`
}

func (h modelHead) dependencies() []string {
	deps := stringList(h.Extends)
	for _, c := range h.Contents {
		for _, t := range stringList(c.Type) {
			if t != "Component" {
				continue
			}
			if schema, ok := c.Schema.(string); ok {
				deps = append(deps, schema)
			}
		}
	}

	return deps
}

func stringList(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var ret []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				ret = append(ret, s)
			}
		}
		return ret
	default:
		return nil
	}
}

func record(tw twins.RawTwin) (map[string]any, error) {
	data, err := json.Marshal(tw)
	if err != nil {
		return nil, err
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func applyPatch(props map[string]any, p twins.Patch) error {
	path := strings.Split(strings.TrimPrefix(p.Path, "/"), "/")
	cur := props
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			if p.Op == "remove" {
				return errors.ErrNotFound
			}
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	last := path[len(path)-1]
	switch p.Op {
	case "add":
		cur[last] = p.Value
	case "replace":
		if _, ok := cur[last]; !ok {
			return errors.ErrNotFound
		}
		cur[last] = p.Value
	case "remove":
		if _, ok := cur[last]; !ok {
			return errors.ErrNotFound
		}
		delete(cur, last)
	default:
		return errors.ErrMalformedEntity
	}

	return nil
}

func copyMap(m map[string]any) map[string]any {
	ret := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = copyMap(nested)
		}
		ret[k] = v
	}

	return ret
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
