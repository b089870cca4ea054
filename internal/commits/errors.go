// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"errors"
	"fmt"
)

// Sentinel outcomes. Neither is a failure of the operation; callers check
// them with errors.Is and report them as notices.
var (
	// ErrNoData means nothing usable is cached for a key: the file is
	// missing, empty, or could not be read as records.
	ErrNoData = errors.New("no data found")

	// ErrCorrupt is the flavour of ErrNoData for a cache file that exists but
	// does not hold valid records.
	ErrCorrupt = fmt.Errorf("%w: unreadable cache", ErrNoData)

	// ErrNoActivity means an update fetched zero records. The cache is left
	// untouched.
	ErrNoActivity = errors.New("no activity found")
)
