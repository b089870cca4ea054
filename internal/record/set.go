// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Set is an ordered collection of records for one cache key.
type Set []Record

// Merge combines freshly fetched records with cached ones. When both hold a
// record with the same timestamp the fresh one is kept. Fresh records come
// first, in their original order, followed by the surviving cached records.
// Timestamps are compared as they will be written with layout.
func Merge(fresh, cached Set, layout string) Set {
	merged := make(Set, 0, len(fresh)+len(cached))
	merged = append(merged, fresh...)
	merged = append(merged, cached...)
	return merged.Dedupe(layout)
}

// Dedupe drops every record whose timestamp, formatted in UTC with layout,
// was already seen, keeping the first occurrence. Sub-second differences
// vanish when layout has no fractional seconds.
func (s Set) Dedupe(layout string) Set {
	seen := make(map[string]struct{}, len(s))
	result := make(Set, 0, len(s))
	for _, r := range s {
		k := r.Date.UTC().Format(layout)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, r)
	}
	return result
}

// In returns a copy of s with every date expressed in loc.
func (s Set) In(loc *time.Location) Set {
	result := make(Set, len(s))
	for i, r := range s {
		r.Date = r.Date.UTC().In(loc)
		result[i] = r
	}
	return result
}

// Rows flattens the set into one map per record with the date formatted in
// layout, the shape written to disk and fed to the output pipeline.
func (s Set) Rows(layout string) []map[string]any {
	rows := make([]map[string]any, 0, len(s))
	for _, r := range s {
		row := make(map[string]any, len(r.Fields)+1)
		for k, v := range r.Fields {
			row[k] = v
		}
		row[DateField] = r.Date.Format(layout)
		rows = append(rows, row)
	}
	return rows
}

// Encode serializes s as a JSON array. Dates are written in UTC using layout.
func Encode(s Set, layout string) ([]byte, error) {
	b, err := json.Marshal(s.In(time.UTC).Rows(layout))
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return append(b, '\n'), nil
}

// Decode parses a JSON array written by Encode. Every element must carry a
// parseable date. Dates are converted to loc.
func Decode(data []byte, layout string, loc *time.Location) (Set, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	s := make(Set, 0, len(rows))
	for i, row := range rows {
		date, err := ParseDate(row[DateField], layout)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		delete(row, DateField)
		s = append(s, Record{Date: date.UTC().In(loc), Fields: row})
	}
	return s, nil
}
