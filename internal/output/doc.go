// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, sorts and renders record datasets as text tables,
// JSON, YAML or the raw cache document.
package output
