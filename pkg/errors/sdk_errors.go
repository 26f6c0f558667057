// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	errKey  = "error"
	codeKey = "code"
	msgKey  = "message"
)

var (
	// errJSONKey indicates response body did not contain error message.
	errJSONKey = New("response body expected error message json key not found")

	// errUnknown indicates that an unknown error was found in the response body.
	errUnknown = New("unknown error")
)

// SDKError is an error type for the remote store SDK.
type SDKError interface {
	Error
	StatusCode() int
}

var _ SDKError = (*sdkError)(nil)

type sdkError struct {
	*customError
	statusCode int
}

func (ce *sdkError) Error() string {
	if ce == nil {
		return ""
	}
	if ce.customError == nil {
		return http.StatusText(ce.statusCode)
	}
	return fmt.Sprintf("Status: %s: %s", http.StatusText(ce.statusCode), ce.customError.Error())
}

func (ce *sdkError) StatusCode() int {
	return ce.statusCode
}

// NewSDKError returns an SDK Error that formats as the given text.
func NewSDKError(err error) SDKError {
	return NewSDKErrorWithStatus(err, 0)
}

// NewSDKErrorWithStatus returns an SDK Error setting the status code.
func NewSDKErrorWithStatus(err error, statusCode int) SDKError {
	if err == nil {
		err = errors.New(http.StatusText(statusCode))
	}
	return &sdkError{
		statusCode: statusCode,
		customError: &customError{
			msg: err.Error(),
			err: nil,
		},
	}
}

// CheckError will check the HTTP response status code and matches it with the given status codes.
// Since multiple status codes can be valid, we can pass multiple status codes to the function.
// The remote store reports failures either as {"error": "..."} or as
// {"error": {"code": "...", "message": "..."}}; both shapes are understood.
func CheckError(resp *http.Response, expectedStatusCodes ...int) SDKError {
	for _, expectedStatusCode := range expectedStatusCodes {
		if resp.StatusCode == expectedStatusCode {
			return nil
		}
	}

	var content map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return NewSDKErrorWithStatus(err, resp.StatusCode)
	}

	msg, ok := content[errKey]
	if !ok {
		return NewSDKErrorWithStatus(errJSONKey, resp.StatusCode)
	}

	switch v := msg.(type) {
	case string:
		return NewSDKErrorWithStatus(errors.New(v), resp.StatusCode)
	case map[string]interface{}:
		text, _ := v[msgKey].(string)
		code, _ := v[codeKey].(string)
		switch {
		case code != "" && text != "":
			return NewSDKErrorWithStatus(fmt.Errorf("%s: %s", code, text), resp.StatusCode)
		case text != "":
			return NewSDKErrorWithStatus(errors.New(text), resp.StatusCode)
		case code != "":
			return NewSDKErrorWithStatus(errors.New(code), resp.StatusCode)
		}
	}

	return NewSDKErrorWithStatus(errUnknown, resp.StatusCode)
}
