// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package auth resolves the GitHub API credentials used by the fetcher.
package auth
