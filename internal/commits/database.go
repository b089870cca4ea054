// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/watchtowergo/internal/auth"
	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/github"
)

// Database ties a data root, its store and an API client together so that
// many owners and projects can be updated and loaded through one value.
type Database struct {
	Reader
	Updater
}

// Open builds a Database for settings.DataHome. creds are only needed for
// updates; a zero value is fine for read-only use.
func Open(ctx context.Context, settings config.Settings, creds auth.Credentials) (*Database, error) {
	store, err := cacheutil.OpenStore(ctx, settings.DataHome)
	if err != nil {
		return nil, fmt.Errorf("failed to open data home %s: %w", settings.DataHome, err)
	}
	return New(settings, store, github.NewClient(ctx, creds)), nil
}

// New assembles a Database from its parts.
func New(settings config.Settings, store cacheutil.Store, pager Pager) *Database {
	db := &Database{
		Reader: Reader{Store: store, Settings: settings},
	}
	db.Updater = Updater{Reader: &db.Reader, Pager: pager}
	return db
}

// SetNotices redirects notices, e.g. to a buffer in tests or io.Discard.
func (db *Database) SetNotices(w io.Writer) {
	db.Reader.Notices = w
}

// Keys lists every key with a cache file under the data root.
func (db *Database) Keys(ctx context.Context) ([]cacheutil.Key, error) {
	rels, err := db.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]cacheutil.Key, 0, len(rels))
	for _, rel := range rels {
		if k, ok := cacheutil.KeyFromRelPath(rel); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Users returns the owners with cached user activity.
func (db *Database) Users(ctx context.Context) ([]string, error) {
	return db.owners(ctx, cacheutil.UserActivity)
}

// Projects returns owner/project names with cached commits, branches
// included as owner/project@branch.
func (db *Database) Projects(ctx context.Context) ([]string, error) {
	keys, err := db.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, k := range keys {
		if k.Kind() != cacheutil.UserActivity {
			result = append(result, k.String())
		}
	}
	return result, nil
}

func (db *Database) owners(ctx context.Context, kind cacheutil.Kind) ([]string, error) {
	keys, err := db.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, k := range keys {
		if k.Kind() == kind {
			result = append(result, k.Owner)
		}
	}
	return result, nil
}

// Describe renders a short summary of what is cached.
func (db *Database) Describe(ctx context.Context) (string, error) {
	users, err := db.Users(ctx)
	if err != nil {
		return "", err
	}
	projects, err := db.Projects(ctx)
	if err != nil {
		return "", err
	}

	log.Debugf("describe: %d users, %d projects", len(users), len(projects))

	var b strings.Builder
	fmt.Fprintf(&b, "Data home: %s\n", db.Store.Root())
	fmt.Fprintf(&b, "Users: %s\n", joinOrNone(users))
	fmt.Fprintf(&b, "Projects: %s\n", joinOrNone(projects))
	return b.String(), nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
