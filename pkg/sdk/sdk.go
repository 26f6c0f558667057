// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package sdk contains the HTTP client of the remote digital twins store.
// It implements twins.Store over the store's REST API.
package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
	"golang.org/x/time/rate"
)

const (
	// CTJSON represents JSON content type.
	CTJSON = "application/json"

	// CTJSONPatch represents JSON Patch content type.
	CTJSONPatch = "application/json-patch+json"

	// BearerPrefix represents the token prefix for Bearer authentication scheme.
	BearerPrefix = "Bearer "

	// DefaultAPIVersion is the store API version used when none is set.
	DefaultAPIVersion = "2020-10-31"

	apiVersionKey = "api-version"
	defTimeout    = 30 * time.Second
)

var (
	// ErrInvalidURL indicates a malformed store URL.
	ErrInvalidURL = errors.New("invalid store URL")

	// ErrForeignLink indicates a next page link pointing outside the store.
	ErrForeignLink = errors.New("next link does not belong to the store")
)

// Config contains the store client settings.
type Config struct {
	URL             string
	Token           string
	APIVersion      string
	TLSVerification bool
	Timeout         time.Duration

	// RequestsPerSecond limits outgoing requests. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

var _ twins.Store = (*store)(nil)

type store struct {
	url        *url.URL
	token      string
	apiVersion string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewStore returns a twins.Store talking to the store at conf.URL.
func NewStore(conf Config) (twins.Store, error) {
	u, err := url.Parse(strings.TrimSuffix(conf.URL, "/"))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}

	apiVersion := conf.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	timeout := conf.Timeout
	if timeout == 0 {
		timeout = defTimeout
	}

	var limiter *rate.Limiter
	if conf.RequestsPerSecond > 0 {
		burst := conf.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), burst)
	}

	return &store{
		url:        u,
		token:      conf.Token,
		apiVersion: apiVersion,
		limiter:    limiter,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !conf.TLSVerification,
				},
			},
		},
	}, nil
}

// endpoint builds a store URL from escaped path segments and query values.
func (s *store) endpoint(query url.Values, segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, url.PathEscape(seg))
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set(apiVersionKey, s.apiVersion)

	return fmt.Sprintf("%s/%s?%s", s.url.String(), strings.Join(parts, "/"), query.Encode())
}

// follow validates a next page link returned by the store.
func (s *store) follow(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", errors.Wrap(ErrForeignLink, err)
	}
	if !u.IsAbs() {
		u = s.url.ResolveReference(u)
	}
	if u.Scheme != s.url.Scheme || u.Host != s.url.Host {
		return "", ErrForeignLink
	}
	q := u.Query()
	if q.Get(apiVersionKey) == "" {
		q.Set(apiVersionKey, s.apiVersion)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// processRequest creates and sends a new HTTP request, and checks for errors in the HTTP response.
// It then returns the response headers, the response body, and the associated error(s) (if any).
func (s *store) processRequest(ctx context.Context, method, reqURL string, data []byte, headers map[string]string, expectedRespCodes ...int) (http.Header, []byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return make(http.Header), []byte{}, errors.NewSDKError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(data))
	if err != nil {
		return make(http.Header), []byte{}, errors.NewSDKError(err)
	}

	// Sets a default value for the Content-Type.
	// Overridden if Content-Type is passed in the headers arguments.
	req.Header.Set("Content-Type", CTJSON)
	req.Header.Set("Accept", CTJSON)

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if s.token != "" {
		req.Header.Set("Authorization", BearerPrefix+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return make(http.Header), []byte{}, errors.NewSDKError(err)
	}
	defer resp.Body.Close()

	if sdkerr := errors.CheckError(resp, expectedRespCodes...); sdkerr != nil {
		return make(http.Header), []byte{}, statusError(sdkerr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return make(http.Header), []byte{}, errors.NewSDKError(err)
	}

	return resp.Header, body, nil
}

// statusError wraps the store failure with the sentinel matching its status
// so callers can tell missing and conflicting entities apart. The SDKError
// stays in the chain.
func statusError(err errors.SDKError) error {
	switch err.StatusCode() {
	case http.StatusNotFound:
		return errors.Wrap(errors.ErrNotFound, err)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return errors.Wrap(errors.ErrConflict, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(errors.ErrAuthentication, err)
	default:
		return err
	}
}
