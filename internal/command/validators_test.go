// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputValidator(t *testing.T) {
	for _, v := range []string{"text", "json", "raw", "yaml"} {
		assert.NoError(t, OutputValidator(v), v)
	}
	assert.Error(t, OutputValidator("csv"))
	assert.Error(t, OutputValidator(""))
}

func TestSinceValidator(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{"2024-03-01", false},
		{"2024-03-01T12:00:00Z", false},
		{"2024-03-01T12:00:00-08:00", false},
		{"yesterday", true},
		{"2024/03/01", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := SinceValidator(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPositiveValidator(t *testing.T) {
	assert.NoError(t, PositiveValidator(1))
	assert.Error(t, PositiveValidator(0))
	assert.Error(t, PositiveValidator(-3))
}

func TestFlagValidators_StopsAtFirstError(t *testing.T) {
	err := FlagValidators("--json", JammedFlagValidator, OutputValidator)
	assert.EqualError(t, err, "must not begin with '--'")
	assert.NoError(t, FlagValidators("json", JammedFlagValidator, OutputValidator))
}

func TestNormalizeSince(t *testing.T) {
	assert.Equal(t, "2024-03-01T00:00:00Z", normalizeSince("2024-03-01"))
	assert.Equal(t, "2024-03-01T12:00:00-08:00", normalizeSince("2024-03-01T12:00:00-08:00"))
	assert.Equal(t, "", normalizeSince(""))
}
