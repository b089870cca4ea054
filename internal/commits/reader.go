// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"

	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/record"
)

// Reader loads cached record sets.
type Reader struct {
	Store    cacheutil.Store
	Settings config.Settings
	// Notices receives human-readable notices such as "no data found".
	// Defaults to stderr.
	Notices io.Writer
}

// LoadRecords returns the cached records for k with dates in the display
// zone. A missing, empty or unreadable cache yields an error matching
// ErrNoData; unreadable content also matches ErrCorrupt.
func (r *Reader) LoadRecords(ctx context.Context, k cacheutil.Key) (record.Set, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	rel := k.RelPath()
	loc := cacheutil.Location(r.Settings.DataHome, k)

	data, err := r.Store.Read(ctx, rel)
	switch {
	case errors.Is(err, cacheutil.ErrNotExist):
		return nil, r.noData(k, fmt.Errorf("%s: %w", loc, ErrNoData))
	case err != nil:
		return nil, fmt.Errorf("failed to read cache for %s: %w", k, err)
	}

	if len(data) == 0 {
		return nil, r.noData(k, fmt.Errorf("%s is empty: %w", loc, ErrNoData))
	}

	set, err := record.Decode(data, r.Settings.DateTimeFormat, r.Settings.Location)
	if err != nil {
		return nil, r.noData(k, fmt.Errorf("%s: %w: %w", loc, ErrCorrupt, err))
	}

	if len(set) == 0 {
		return nil, r.noData(k, fmt.Errorf("no commits for %s: %w", k, ErrNoData))
	}

	log.Debugf("loaded %d records from %s", len(set), loc)
	return set, nil
}

// Load is LoadRecords wrapped with the key it was loaded for.
func (r *Reader) Load(ctx context.Context, k cacheutil.Key) (*ProjectCommits, error) {
	set, err := r.LoadRecords(ctx, k)
	if err != nil {
		return nil, err
	}
	return NewProjectCommits(k, set, r.Settings.Location), nil
}

func (r *Reader) noData(k cacheutil.Key, err error) error {
	log.WithField("key", k.String()).WithError(err).Info("no cached data")
	r.notice(err.Error())
	return err
}

func (r *Reader) notice(msg string) {
	w := r.Notices
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, msg)
}
