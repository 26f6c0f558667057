// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twins

import (
	"encoding/json"
	"time"
)

// ModelData is a model catalog entry. Model holds the full model document
// when definitions were requested.
type ModelData struct {
	ID             string            `json:"id"`
	DisplayName    map[string]string `json:"displayName,omitempty"`
	Description    map[string]string `json:"description,omitempty"`
	Decommissioned bool              `json:"decommissioned,omitempty"`
	UploadTime     *time.Time        `json:"uploadTime,omitempty"`
	Model          json.RawMessage   `json:"model,omitempty"`
}
