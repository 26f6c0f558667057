// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package apiutil_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/absmach/twinexplorer/internal/apiutil"
	"github.com/absmach/twinexplorer/logger"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(t *testing.T, raw string) *http.Request {
	parsedURL, err := url.Parse(raw)
	require.NoError(t, err)
	return &http.Request{URL: parsedURL}
}

func TestReadStringQuery(t *testing.T) {
	cases := []struct {
		desc string
		url  string
		ret  string
		err  error
	}{
		{desc: "valid string query", url: "http://localhost:9030/?key=test", ret: "test"},
		{desc: "empty string query", url: "http://localhost:9030/", ret: "def"},
		{desc: "multiple string query", url: "http://localhost:9030/?key=test&key=random", err: apiutil.ErrInvalidQueryParams},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			ret, err := apiutil.ReadStringQuery(request(t, c.url), "key", "def")
			assert.Equal(t, c.err, err)
			assert.Equal(t, c.ret, ret)
		})
	}
}

func TestReadListQuery(t *testing.T) {
	cases := []struct {
		desc string
		url  string
		ret  []string
	}{
		{desc: "comma separated", url: "http://localhost:9030/?id=a,b", ret: []string{"a", "b"}},
		{desc: "repeated", url: "http://localhost:9030/?id=a&id=b,c", ret: []string{"a", "b", "c"}},
		{desc: "blank items", url: "http://localhost:9030/?id=a,,%20", ret: []string{"a"}},
		{desc: "missing", url: "http://localhost:9030/", ret: nil},
	}

	for _, c := range cases {
		assert.Equal(t, c.ret, apiutil.ReadListQuery(request(t, c.url), "id"), c.desc)
	}
}

func TestReadBoolQuery(t *testing.T) {
	cases := []struct {
		desc string
		url  string
		ret  bool
		err  error
	}{
		{desc: "valid bool query", url: "http://localhost:9030/?key=true", ret: true},
		{desc: "default", url: "http://localhost:9030/", ret: false},
		{desc: "invalid bool query", url: "http://localhost:9030/?key=yes", err: apiutil.ErrInvalidQueryParams},
		{desc: "multiple bool query", url: "http://localhost:9030/?key=true&key=false", err: apiutil.ErrInvalidQueryParams},
	}

	for _, c := range cases {
		ret, err := apiutil.ReadBoolQuery(request(t, c.url), "key", false)
		assert.True(t, errors.Contains(err, c.err), fmt.Sprintf("%s: expected %s got %s", c.desc, c.err, err))
		assert.Equal(t, c.ret, ret, c.desc)
	}
}

func TestReadNumQuery(t *testing.T) {
	cases := []struct {
		desc string
		url  string
		ret  uint64
		err  error
	}{
		{desc: "valid number", url: "http://localhost:9030/?key=3", ret: 3},
		{desc: "default", url: "http://localhost:9030/", ret: 1},
		{desc: "negative", url: "http://localhost:9030/?key=-1", err: apiutil.ErrInvalidQueryParams},
		{desc: "not a number", url: "http://localhost:9030/?key=x", err: apiutil.ErrInvalidQueryParams},
	}

	for _, c := range cases {
		ret, err := apiutil.ReadNumQuery[uint64](request(t, c.url), "key", 1)
		assert.True(t, errors.Contains(err, c.err), fmt.Sprintf("%s: expected %s got %s", c.desc, c.err, err))
		assert.Equal(t, c.ret, ret, c.desc)
	}

	f, err := apiutil.ReadNumQuery[float64](request(t, "http://localhost:9030/?key=2.5"), "key", 0)
	assert.Nil(t, err)
	assert.Equal(t, 2.5, f)
}

func TestLoggingErrorEncoder(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "debug")
	require.NoError(t, err)

	encoded := 0
	enc := apiutil.LoggingErrorEncoder(log, func(_ context.Context, _ error, w http.ResponseWriter) {
		encoded++
		w.WriteHeader(http.StatusBadRequest)
	})

	enc(context.Background(), errors.Wrap(apiutil.ErrValidation, apiutil.ErrMissingID), httptest.NewRecorder())
	assert.Equal(t, 1, encoded)
	assert.Contains(t, buf.String(), apiutil.ErrMissingID.Error())

	buf.Reset()
	enc(context.Background(), errors.ErrNotFound, httptest.NewRecorder())
	assert.Equal(t, 2, encoded)
	assert.Empty(t, buf.String(), "only validation errors are logged")
}
