// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apex/log"

	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/github"
	"github.com/staranto/watchtowergo/internal/record"
)

// Pager fetches every page of JSON objects from a list endpoint.
// *github.Client satisfies it.
type Pager interface {
	GetFrames(ctx context.Context, url string, opts github.PageOptions) ([]map[string]any, error)
}

// UpdateRequest selects what to refresh. Zero MaxPages and PerPage fall back
// to the reader's settings.
type UpdateRequest struct {
	Key      cacheutil.Key
	Since    string
	MaxPages int
	PerPage  int
	// Params are passed through to every page request.
	Params map[string]string
}

// Updater refreshes a cache key from the API and merges the result into
// what is already cached.
type Updater struct {
	Reader *Reader
	Pager  Pager

	locks keyLocks
}

// Update fetches fresh records for req.Key, merges them with the cache, and
// returns the cache as it reads back after the write. If the API returns
// nothing it reports ErrNoActivity and leaves the cache alone.
func (u *Updater) Update(ctx context.Context, req UpdateRequest) (*ProjectCommits, error) {
	settings := u.Reader.Settings
	if req.MaxPages <= 0 {
		req.MaxPages = settings.MaxPages
	}
	if req.PerPage <= 0 {
		req.PerPage = settings.PerPage
	}

	req.Key = req.Key.Canonical()
	if err := req.Key.Validate(); err != nil {
		return nil, err
	}
	unlock := u.locks.lock(req.Key)
	defer unlock()

	url := github.Endpoint(settings.APIRoot, req.Key)
	log.Debugf("updating %s from %s", req.Key, url)

	raw, err := u.Pager.GetFrames(ctx, url, github.PageOptions{
		Since:    req.Since,
		MaxPages: req.MaxPages,
		PerPage:  req.PerPage,
		Params:   req.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.Key, err)
	}

	if len(raw) == 0 {
		u.Reader.notice(ErrNoActivity.Error())
		return nil, fmt.Errorf("%s: %w", req.Key, ErrNoActivity)
	}

	fresh := normalize(req.Key, raw, settings.DateTimeFormat)
	if len(fresh) == 0 {
		u.Reader.notice(ErrNoActivity.Error())
		return nil, fmt.Errorf("%s: %d records without a date: %w", req.Key, len(raw), ErrNoActivity)
	}

	cached, err := u.Reader.LoadRecords(ctx, req.Key)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}

	merged := record.Merge(fresh, cached, settings.DateTimeFormat)
	log.Debugf("%s: fetched %d, cached %d, merged %d", req.Key, len(fresh), len(cached), len(merged))

	data, err := record.Encode(merged, settings.DateTimeFormat)
	if err != nil {
		return nil, err
	}
	if err := u.Reader.Store.Write(ctx, req.Key.RelPath(), data); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", req.Key, err)
	}

	return u.Reader.Load(ctx, req.Key)
}

// normalize maps raw API objects onto records with a canonical date. Objects
// without a usable timestamp are dropped.
func normalize(k cacheutil.Key, raw []map[string]any, layout string) record.Set {
	from := record.FromCommit
	if k.Kind() == cacheutil.UserActivity {
		from = record.FromEvent
	}

	set := make(record.Set, 0, len(raw))
	for i, obj := range raw {
		r, err := from(obj, layout)
		if err != nil {
			log.WithError(err).Debugf("dropping record %d for %s", i, k)
			continue
		}
		set = append(set, r)
	}
	return set
}

// keyLocks hands out one mutex per cache key so concurrent updates of the
// same key serialize their read-merge-write.
type keyLocks struct {
	mu    sync.Mutex
	locks map[cacheutil.Key]*sync.Mutex
}

func (l *keyLocks) lock(k cacheutil.Key) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[cacheutil.Key]*sync.Mutex)
	}
	m, ok := l.locks[k]
	if !ok {
		m = &sync.Mutex{}
		l.locks[k] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
