// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package docgen holds the markdown page of every command and renders it as
// a man page, a tldr page, or the examples shown by --examples.
package docgen
