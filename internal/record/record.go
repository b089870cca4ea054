// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateField is the canonical timestamp key every record exposes.
const DateField = "date"

var (
	// ErrMissingDate means a record has no usable timestamp.
	ErrMissingDate = errors.New("record has no date")
)

// Record is one commit or activity event. Fields holds everything the API
// returned except the canonical date.
type Record struct {
	Date   time.Time
	Fields map[string]any
}

// Get walks a dotted path through Fields. "date" returns Date.
func (r Record) Get(path string) any {
	if path == DateField {
		return r.Date
	}

	var current any = r.Fields
	for _, k := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[k]
		if !ok {
			return nil
		}
	}
	return current
}

// String returns the value at path as a string, or "" if it is absent or not
// a string.
func (r Record) String(path string) string {
	s, _ := r.Get(path).(string)
	return s
}

// FromEvent normalizes a user activity event: created_at becomes date.
func FromEvent(raw map[string]any, layout string) (Record, error) {
	return fromField(raw, []string{"created_at"}, layout)
}

// FromCommit normalizes a repository commit: commit.author.date becomes date.
// The nested commit metadata is left in place.
func FromCommit(raw map[string]any, layout string) (Record, error) {
	return fromField(raw, []string{"commit", "author", "date"}, layout)
}

func fromField(raw map[string]any, path []string, layout string) (Record, error) {
	var current any = raw
	for _, k := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return Record{}, fmt.Errorf("%s: %w", strings.Join(path, "."), ErrMissingDate)
		}
		current = m[k]
	}

	date, err := ParseDate(current, layout)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	// A top-level created_at is renamed rather than copied.
	if len(path) == 1 {
		delete(fields, path[0])
	}
	delete(fields, DateField)

	return Record{Date: date, Fields: fields}, nil
}

// ParseDate reads a timestamp in layout. RFC 3339 strings are accepted as a
// fallback, and numbers are taken as epoch milliseconds, which is how older
// caches stored them.
func ParseDate(v any, layout string) (time.Time, error) {
	switch v := v.(type) {
	case string:
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", v, ErrMissingDate)
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case nil:
		return time.Time{}, ErrMissingDate
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T: %w", v, ErrMissingDate)
	}
}
