// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/github"
)

// fakePager returns canned pages and records the calls it receives.
type fakePager struct {
	mu    sync.Mutex
	items []map[string]any
	err   error
	urls  []string
	opts  []github.PageOptions
}

func (f *fakePager) GetFrames(_ context.Context, url string, opts github.PageOptions) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	f.opts = append(f.opts, opts)
	return f.items, f.err
}

func newTestDB(t *testing.T, pager Pager) (*Database, *bytes.Buffer) {
	t.Helper()

	settings, err := config.Defaults(t.TempDir())
	require.NoError(t, err)
	settings.APIRoot = "https://api.example.com/"

	db := New(settings, cacheutil.NewFileStore(settings.DataHome), pager)
	var notices bytes.Buffer
	db.SetNotices(&notices)
	return db, &notices
}

func event(id, created string, typ string) map[string]any {
	return map[string]any{"id": id, "type": typ, "created_at": created}
}

func commit(sha, date, message string) map[string]any {
	return map[string]any{
		"sha": sha,
		"commit": map[string]any{
			"message": message,
			"author":  map[string]any{"name": "Ada", "date": date},
		},
	}
}

func writeCache(t *testing.T, db *Database, k cacheutil.Key, body string) string {
	t.Helper()
	p := cacheutil.Location(db.Settings.DataHome, k)
	require.NoError(t, cacheutil.EnsureParent(p))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_NoData(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme", Project: "widget"}

	tests := []struct {
		name        string
		body        *string
		wantCorrupt bool
	}{
		{name: "missing file"},
		{name: "empty file", body: ptr("")},
		{name: "zero records", body: ptr("[]")},
		{name: "malformed json", body: ptr("{nope"), wantCorrupt: true},
		{name: "record without date", body: ptr(`[{"sha":"x"}]`), wantCorrupt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, notices := newTestDB(t, &fakePager{})
			if tt.body != nil {
				writeCache(t, db, k, *tt.body)
			}

			got, err := db.Load(ctx, k)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrNoData)
			assert.Equal(t, tt.wantCorrupt, errors.Is(err, ErrCorrupt))
			assert.NotEmpty(t, notices.String(), "a notice is emitted")
		})
	}
}

func ptr(s string) *string { return &s }

func TestLoad_DisplayZone(t *testing.T) {
	db, _ := newTestDB(t, &fakePager{})
	k := cacheutil.Key{Owner: "acme"}
	writeCache(t, db, k, `[{"date":"2024-03-01T17:04:05Z","type":"PushEvent"}]`)

	pc, err := db.Load(context.Background(), k)
	require.NoError(t, err)

	require.Equal(t, 1, pc.Len())
	assert.Equal(t, "acme", pc.User())
	assert.Equal(t, "", pc.Project())
	assert.Equal(t, config.DisplayZone, pc.Records[0].Date.Location().String())
	assert.Equal(t, "2024-03-01T09:04:05-08:00", pc.Records[0].Date.Format(time.RFC3339))
}

func TestUpdate_UserActivity(t *testing.T) {
	ctx := context.Background()
	pager := &fakePager{items: []map[string]any{
		event("2", "2024-03-02T10:00:00Z", "PushEvent"),
		event("1", "2024-03-01T10:00:00Z", "WatchEvent"),
	}}
	db, _ := newTestDB(t, pager)
	k := cacheutil.Key{Owner: "acme"}

	pc, err := db.Update(ctx, UpdateRequest{Key: k, Since: "2024-01-01T00:00:00Z", MaxPages: 2, PerPage: 30})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.example.com/users/acme/events"}, pager.urls)
	assert.Equal(t, github.PageOptions{Since: "2024-01-01T00:00:00Z", MaxPages: 2, PerPage: 30}, pager.opts[0])

	require.Equal(t, 2, pc.Len())
	assert.Equal(t, "2", pc.Records[0].Fields["id"])
	assert.NotContains(t, pc.Records[0].Fields, "created_at")

	_, err = os.Stat(filepath.Join(db.Settings.DataHome, "users", "acme", "activity.json"))
	assert.NoError(t, err)
}

func TestUpdate_BranchCommits(t *testing.T) {
	ctx := context.Background()
	pager := &fakePager{items: []map[string]any{
		commit("b", "2024-03-02T10:00:00Z", "Updated the docs"),
	}}
	db, _ := newTestDB(t, pager)
	k := cacheutil.Key{Owner: "acme", Project: "widget", Branch: "dev"}

	pc, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.example.com/repos/acme/widget/commits?sha=dev"}, pager.urls)
	assert.Equal(t, config.DefaultMaxPages, pager.opts[0].MaxPages)
	assert.Equal(t, config.DefaultPerPage, pager.opts[0].PerPage)

	require.Equal(t, 1, pc.Len())
	assert.Equal(t, "Updated the docs", Message(pc.Records[0]))

	_, err = os.Stat(filepath.Join(db.Settings.DataHome, "projects", "acme", "widget", "branches", "dev", "commits.json"))
	assert.NoError(t, err)
}

func TestUpdate_MergesAndFreshWins(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme", Project: "widget"}
	pager := &fakePager{items: []map[string]any{
		commit("new-3", "2024-03-03T00:00:00Z", "third"),
		commit("new-2", "2024-03-02T00:00:00Z", "second, amended"),
	}}
	db, _ := newTestDB(t, pager)
	writeCache(t, db, k, `[
		{"date":"2024-03-02T00:00:00Z","sha":"old-2"},
		{"date":"2024-03-01T00:00:00Z","sha":"old-1"}
	]`)

	pc, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)

	var shas []string
	for _, r := range pc.Records {
		shas = append(shas, r.String("sha"))
	}
	assert.Equal(t, []string{"new-3", "new-2", "old-1"}, shas)
}

func TestUpdate_SubSecondTimestampsPersistOnce(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme"}
	pager := &fakePager{items: []map[string]any{
		event("1", "2024-03-01T10:00:00.250Z", "PushEvent"),
		event("2", "2024-03-01T10:00:00.750Z", "PushEvent"),
	}}
	db, _ := newTestDB(t, pager)

	pc, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)
	require.Equal(t, 1, pc.Len())
	assert.Equal(t, "1", pc.Records[0].String("id"))

	data, err := os.ReadFile(cacheutil.Location(db.Settings.DataHome, k))
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte(`"date":"2024-03-01T10:00:00Z"`)))
}

func TestInvalidKeysStayInsideDataHome(t *testing.T) {
	ctx := context.Background()
	keys := []cacheutil.Key{
		{Owner: ".."},
		{Owner: "../../escape"},
		{Owner: "acme", Project: "../../../x"},
		{Owner: "acme", Project: "widget", Branch: "../../../x"},
	}

	for _, k := range keys {
		t.Run(k.String(), func(t *testing.T) {
			pager := &fakePager{items: []map[string]any{event("1", "2024-03-01T10:00:00Z", "PushEvent")}}
			db, _ := newTestDB(t, pager)

			_, err := db.Update(ctx, UpdateRequest{Key: k})
			assert.ErrorIs(t, err, cacheutil.ErrInvalidKey)
			assert.Empty(t, pager.urls, "nothing fetched for an invalid key")

			_, err = db.LoadRecords(ctx, k)
			assert.ErrorIs(t, err, cacheutil.ErrInvalidKey)
			assert.NotErrorIs(t, err, ErrNoData)
		})
	}
}

func TestUpdate_SlashedBranchIsListed(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme", Project: "widget", Branch: "release/1.0"}
	db, _ := newTestDB(t, &fakePager{items: []map[string]any{
		commit("abc", "2024-03-01T00:00:00Z", "cut release"),
	}})

	_, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)

	projects, err := db.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/widget@release/1.0"}, projects)
}

func TestUpdate_Idempotent(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme"}
	pager := &fakePager{items: []map[string]any{
		event("1", "2024-03-01T10:00:00Z", "PushEvent"),
		event("2", "2024-03-02T10:00:00Z", "PushEvent"),
	}}
	db, _ := newTestDB(t, pager)

	first, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)
	second, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)

	assert.Equal(t, first.Len(), second.Len())
}

func TestUpdate_NoActivityLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme", Project: "widget"}

	tests := []struct {
		name  string
		items []map[string]any
	}{
		{name: "zero records"},
		{name: "no usable dates", items: []map[string]any{{"sha": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, notices := newTestDB(t, &fakePager{items: tt.items})
			body := `[{"date":"2024-03-01T00:00:00Z","sha":"old"}]`
			p := writeCache(t, db, k, body)
			before, err := os.Stat(p)
			require.NoError(t, err)

			got, err := db.Update(ctx, UpdateRequest{Key: k})
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrNoActivity)
			assert.Contains(t, notices.String(), "no activity found")

			after, err := os.ReadFile(p)
			require.NoError(t, err)
			assert.Equal(t, body, string(after))

			info, err := os.Stat(p)
			require.NoError(t, err)
			assert.Equal(t, before.ModTime(), info.ModTime())
		})
	}
}

func TestUpdate_NoActivityCreatesNothing(t *testing.T) {
	db, _ := newTestDB(t, &fakePager{})
	_, err := db.Update(context.Background(), UpdateRequest{Key: cacheutil.Key{Owner: "acme"}})
	assert.ErrorIs(t, err, ErrNoActivity)

	_, err = os.Stat(filepath.Join(db.Settings.DataHome, "users"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	db, _ := newTestDB(t, &fakePager{err: boom})

	_, err := db.Update(context.Background(), UpdateRequest{Key: cacheutil.Key{Owner: "acme"}})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoActivity)
}

func TestUpdate_ReplacesCorruptCache(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme"}
	db, _ := newTestDB(t, &fakePager{items: []map[string]any{
		event("1", "2024-03-01T10:00:00Z", "PushEvent"),
	}})
	writeCache(t, db, k, "garbage")

	pc, err := db.Update(ctx, UpdateRequest{Key: k})
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Len())
}

func TestUpdate_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	k := cacheutil.Key{Owner: "acme"}
	db, _ := newTestDB(t, &fakePager{items: []map[string]any{
		event("1", "2024-03-01T10:00:00Z", "PushEvent"),
		event("2", "2024-03-02T10:00:00Z", "PushEvent"),
	}})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = db.Update(ctx, UpdateRequest{Key: k})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	pc, err := db.Load(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 2, pc.Len())
}

func TestDatabase_Listing(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, &fakePager{})

	writeCache(t, db, cacheutil.Key{Owner: "choldgraf"}, "[]")
	writeCache(t, db, cacheutil.Key{Owner: "NelleV"}, "[]")
	writeCache(t, db, cacheutil.Key{Owner: "acme", Project: "widget"}, "[]")
	writeCache(t, db, cacheutil.Key{Owner: "acme", Project: "widget", Branch: "dev"}, "[]")

	users, err := db.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"NelleV", "choldgraf"}, users)

	projects, err := db.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/widget@dev", "acme/widget"}, projects)

	desc, err := db.Describe(ctx)
	require.NoError(t, err)
	assert.Contains(t, desc, "Users: NelleV, choldgraf")
	assert.Contains(t, desc, "Projects: acme/widget@dev, acme/widget")
}

func TestDatabase_DescribeEmpty(t *testing.T) {
	db, _ := newTestDB(t, &fakePager{})
	desc, err := db.Describe(context.Background())
	require.NoError(t, err)
	assert.Contains(t, desc, "Users: (none)")
}
