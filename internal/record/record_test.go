// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layout = time.RFC3339

func TestFromEvent(t *testing.T) {
	raw := map[string]any{
		"id":         "123",
		"type":       "PushEvent",
		"created_at": "2024-03-01T17:04:05Z",
	}

	r, err := FromEvent(raw, layout)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 17, 4, 5, 0, time.UTC), r.Date)
	assert.NotContains(t, r.Fields, "created_at")
	assert.Equal(t, "PushEvent", r.String("type"))
	assert.Contains(t, raw, "created_at", "input must not be mutated")
}

func TestFromCommit(t *testing.T) {
	raw := map[string]any{
		"sha": "abc123",
		"commit": map[string]any{
			"message": "Updated the docs",
			"author": map[string]any{
				"name": "Ada",
				"date": "2024-03-02T08:00:00Z",
			},
		},
	}

	r, err := FromCommit(raw, layout)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "Updated the docs", r.String("commit.message"))
	assert.Equal(t, "Ada", r.Get("commit.author.name"))
	assert.Equal(t, r.Date, r.Get("date"))
}

func TestNormalize_MissingDate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(map[string]any, string) (Record, error)
		raw  map[string]any
	}{
		{"event without created_at", FromEvent, map[string]any{"type": "PushEvent"}},
		{"event with bad created_at", FromEvent, map[string]any{"created_at": "yesterday"}},
		{"commit without commit", FromCommit, map[string]any{"sha": "x"}},
		{"commit with scalar commit", FromCommit, map[string]any{"commit": "x"}},
		{"commit without author date", FromCommit, map[string]any{"commit": map[string]any{"author": map[string]any{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn(tt.raw, layout)
			assert.ErrorIs(t, err, ErrMissingDate)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    time.Time
		wantErr bool
	}{
		{"layout", "2024-03-01T17:04:05Z", time.Date(2024, 3, 1, 17, 4, 5, 0, time.UTC), false},
		{"offset", "2024-03-01T09:04:05-08:00", time.Date(2024, 3, 1, 17, 4, 5, 0, time.UTC), false},
		{"fractional seconds", "2024-03-01T17:04:05.5Z", time.Date(2024, 3, 1, 17, 4, 5, 5e8, time.UTC), false},
		{"epoch millis", float64(1709312645000), time.Date(2024, 3, 1, 17, 4, 5, 0, time.UTC), false},
		{"garbage", "not a date", time.Time{}, true},
		{"nil", nil, time.Time{}, true},
		{"bool", true, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in, layout)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingDate)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestRecord_GetMissing(t *testing.T) {
	r := Record{Fields: map[string]any{"a": map[string]any{"b": 1.0}, "s": "x"}}
	assert.Nil(t, r.Get("a.c"))
	assert.Nil(t, r.Get("s.t"))
	assert.Equal(t, 1.0, r.Get("a.b"))
	assert.Equal(t, "", r.String("a.b"))
}
