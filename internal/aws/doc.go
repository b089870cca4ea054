// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws wraps AWS SDK v2 configuration and S3 client construction for
// data roots that live in a bucket.
package aws
