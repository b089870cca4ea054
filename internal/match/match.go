// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"strings"
)

// DefaultQuery is used when FindWord is given no queries.
const DefaultQuery = "doc"

// FindWord reports whether any of queries occurs in text. Matching is a
// case-insensitive substring test. With no queries, DefaultQuery is used.
// Empty queries never match.
func FindWord(text string, queries ...string) bool {
	if len(queries) == 0 {
		queries = []string{DefaultQuery}
	}

	textLower := strings.ToLower(text)
	for _, q := range queries {
		if q == "" {
			continue
		}
		if strings.Contains(textLower, strings.ToLower(q)) {
			return true
		}
	}

	return false
}

// SplitQueries turns a comma-separated flag value into queries, dropping
// blanks. An empty value yields nil so FindWord falls back to its default.
func SplitQueries(spec string) []string {
	var queries []string
	for _, q := range strings.Split(spec, ",") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}
