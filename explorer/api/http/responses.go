// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/models"
	"github.com/absmach/twinexplorer/twins"
)

var (
	_ twinexplorer.Response = (*loadRes)(nil)
	_ twinexplorer.Response = (*graphRes)(nil)
	_ twinexplorer.Response = (*twinRes)(nil)
	_ twinexplorer.Response = (*templateRes)(nil)
	_ twinexplorer.Response = (*relationshipRes)(nil)
	_ twinexplorer.Response = (*allowedRes)(nil)
	_ twinexplorer.Response = (*modelsRes)(nil)
	_ twinexplorer.Response = (*modelRes)(nil)
	_ twinexplorer.Response = (*modelDocumentRes)(nil)
	_ twinexplorer.Response = (*uploadRes)(nil)
	_ twinexplorer.Response = (*idsRes)(nil)
	_ twinexplorer.Response = (*emptyRes)(nil)
)

type loadRes struct {
	graph.LoadResult
}

func (res loadRes) Code() int {
	return http.StatusOK
}

func (res loadRes) Headers() map[string]string {
	return map[string]string{}
}

func (res loadRes) Empty() bool {
	return false
}

type graphRes struct {
	graph.Snapshot
}

func (res graphRes) Code() int {
	return http.StatusOK
}

func (res graphRes) Headers() map[string]string {
	return map[string]string{}
}

func (res graphRes) Empty() bool {
	return false
}

type twinRes struct {
	twins.Twin
	created bool
}

func (res twinRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res twinRes) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": fmt.Sprintf("/twins/%s", url.PathEscape(res.ID)),
		}
	}

	return map[string]string{}
}

func (res twinRes) Empty() bool {
	return false
}

type templateRes struct {
	ModelID    string         `json:"model_id"`
	Properties map[string]any `json:"properties"`
}

func (res templateRes) Code() int {
	return http.StatusOK
}

func (res templateRes) Headers() map[string]string {
	return map[string]string{}
}

func (res templateRes) Empty() bool {
	return false
}

type relationshipRes struct {
	twins.Relationship
	created bool
}

func (res relationshipRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res relationshipRes) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": fmt.Sprintf("/twins/%s/relationships/%s", url.PathEscape(res.SourceID), url.PathEscape(res.ID)),
		}
	}

	return map[string]string{}
}

func (res relationshipRes) Empty() bool {
	return false
}

type allowedRes struct {
	Relationships []models.RelationshipDecl `json:"relationships"`
}

func (res allowedRes) Code() int {
	return http.StatusOK
}

func (res allowedRes) Headers() map[string]string {
	return map[string]string{}
}

func (res allowedRes) Empty() bool {
	return false
}

type modelsRes struct {
	Total  int            `json:"total"`
	Models []models.Model `json:"models"`
}

func (res modelsRes) Code() int {
	return http.StatusOK
}

func (res modelsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelsRes) Empty() bool {
	return false
}

type modelRes struct {
	models.Model
}

func (res modelRes) Code() int {
	return http.StatusOK
}

func (res modelRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelRes) Empty() bool {
	return false
}

type modelDocumentRes struct {
	twins.ModelData
}

func (res modelDocumentRes) Code() int {
	return http.StatusOK
}

func (res modelDocumentRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelDocumentRes) Empty() bool {
	return false
}

type uploadRes struct {
	Models []twins.ModelData `json:"models"`
}

func (res uploadRes) Code() int {
	return http.StatusCreated
}

func (res uploadRes) Headers() map[string]string {
	return map[string]string{}
}

func (res uploadRes) Empty() bool {
	return false
}

type idsRes struct {
	IDs []string `json:"ids"`
}

func (res idsRes) Code() int {
	return http.StatusOK
}

func (res idsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res idsRes) Empty() bool {
	return false
}

type emptyRes struct{}

func (res emptyRes) Code() int {
	return http.StatusNoContent
}

func (res emptyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res emptyRes) Empty() bool {
	return true
}
