// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package apiutil

import "github.com/absmach/twinexplorer/pkg/errors"

// Errors defined in this file are used by the HTTP layer to determine the
// response status of a failed request.
var (
	// ErrValidation indicates that an error was returned by the API.
	ErrValidation = errors.New("something went wrong with the request")

	// ErrMissingID indicates missing entity ID.
	ErrMissingID = errors.New("missing entity id")

	// ErrMissingModelID indicates missing model ID.
	ErrMissingModelID = errors.New("missing model id")

	// ErrMissingName indicates missing relationship name.
	ErrMissingName = errors.New("missing relationship name")

	// ErrMissingQuery indicates an empty twin query.
	ErrMissingQuery = errors.New("missing twin query")

	// ErrEmptyList indicates that entity data is empty.
	ErrEmptyList = errors.New("empty list provided")

	// ErrInvalidDirection indicates an invalid relationship direction.
	ErrInvalidDirection = errors.New("invalid relationship direction provided")

	// ErrInvalidLevel indicates an invalid expansion level.
	ErrInvalidLevel = errors.New("invalid expansion level provided")

	// ErrInvalidQueryParams indicates invalid query parameters.
	ErrInvalidQueryParams = errors.New("invalid query parameters")

	// ErrUnsupportedContentType indicates unacceptable or lack of Content-Type.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)
