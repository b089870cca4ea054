// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package github pages through GitHub REST list endpoints and hands back the
// raw JSON objects.
package github
