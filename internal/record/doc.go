// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package record holds the commit and activity records kept in the cache,
// their on-disk JSON encoding, and the merge rule used when a cache is
// refreshed.
package record
