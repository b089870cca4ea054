// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package commits reads cached commit and activity history and refreshes it
// incrementally from the GitHub API.
package commits
