// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/absmach/twinexplorer/pkg/errors"
	gofrs "github.com/gofrs/uuid"
	oklog "github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDProvider(t *testing.T) {
	cases := []struct {
		desc   string
		kind   string
		prefix string
		valid  func(id string) error
		err    error
	}{
		{
			desc: "default ulid",
			kind: "",
			valid: func(id string) error {
				_, err := oklog.ParseStrict(id)
				return err
			},
		},
		{
			desc: "ulid",
			kind: "ulid",
			valid: func(id string) error {
				_, err := oklog.ParseStrict(id)
				return err
			},
		},
		{
			desc:   "ulid with prefix",
			kind:   "ulid",
			prefix: "twin-",
			err:    errIDKind,
		},
		{
			desc:   "uuid with prefix",
			kind:   "uuid",
			prefix: "twin-",
			valid: func(id string) error {
				if !strings.HasPrefix(id, "twin-") {
					return fmt.Errorf("%s lacks prefix", id)
				}
				_, err := gofrs.FromString(strings.TrimPrefix(id, "twin-"))
				return err
			},
		},
		{
			desc: "unknown kind",
			kind: "serial",
			err:  errIDKind,
		},
	}

	for _, tc := range cases {
		idp, err := newIDProvider(tc.kind, tc.prefix)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		id, err := idp.ID()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Nil(t, tc.valid(id), tc.desc)
	}
}
