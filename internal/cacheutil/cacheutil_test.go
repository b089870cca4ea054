// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	root := filepath.Join("data", "root")

	tests := []struct {
		name     string
		key      Key
		wantKind Kind
		wantTail string
	}{
		{
			name:     "owner only",
			key:      Key{Owner: "acme"},
			wantKind: UserActivity,
			wantTail: "users/acme/activity.json",
		},
		{
			name:     "owner and project",
			key:      Key{Owner: "acme", Project: "widget"},
			wantKind: ProjectCommits,
			wantTail: "projects/acme/widget/commits.json",
		},
		{
			name:     "owner project and branch",
			key:      Key{Owner: "acme", Project: "widget", Branch: "dev"},
			wantKind: BranchCommits,
			wantTail: "projects/acme/widget/branches/dev/commits.json",
		},
		{
			name:     "branch without project is ignored",
			key:      Key{Owner: "acme", Branch: "dev"},
			wantKind: UserActivity,
			wantTail: "users/acme/activity.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.key.Kind())
			assert.Equal(t, tt.wantTail, tt.key.RelPath())

			got := Location(root, tt.key)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.wantTail)), got)
			assert.True(t, strings.HasSuffix(filepath.ToSlash(got), tt.wantTail))

			back, ok := KeyFromRelPath(tt.wantTail)
			assert.True(t, ok)
			assert.Equal(t, tt.wantTail, back.RelPath())
		})
	}
}

func TestLocation_Remote(t *testing.T) {
	got := Location("s3://bucket/prefix/?region=us-east-1", Key{Owner: "acme", Project: "widget"})
	assert.Equal(t, "s3://bucket/prefix/projects/acme/widget/commits.json", got)
}

func TestKeyFromRelPath_Rejects(t *testing.T) {
	for _, rel := range []string{
		"users/acme/commits.json",
		"projects/acme/commits.json",
		"projects/acme/widget/branches/commits.json",
		"projects/acme/widget/branches/../commits.json",
		"projects/acme/widget/branches/release//commits.json",
		"notes.txt",
	} {
		_, ok := KeyFromRelPath(rel)
		assert.False(t, ok, rel)
	}
}

func TestKeyFromRelPath_SlashedBranch(t *testing.T) {
	k := Key{Owner: "acme", Project: "widget", Branch: "release/1.0"}
	rel := k.RelPath()
	assert.Equal(t, "projects/acme/widget/branches/release/1.0/commits.json", rel)

	back, ok := KeyFromRelPath(rel)
	require.True(t, ok)
	assert.Equal(t, k, back)
}

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{name: "owner", key: Key{Owner: "acme"}},
		{name: "project", key: Key{Owner: "acme", Project: "widget"}},
		{name: "branch", key: Key{Owner: "acme", Project: "widget", Branch: "dev"}},
		{name: "slashed branch", key: Key{Owner: "acme", Project: "widget", Branch: "feature/x"}},
		{name: "dotted names", key: Key{Owner: "acme.io", Project: "widget.go", Branch: "v1.0"}},
		{name: "empty owner", key: Key{Project: "widget"}, wantErr: true},
		{name: "dot owner", key: Key{Owner: "."}, wantErr: true},
		{name: "parent owner", key: Key{Owner: ".."}, wantErr: true},
		{name: "owner with slash", key: Key{Owner: "../../escape"}, wantErr: true},
		{name: "owner with backslash", key: Key{Owner: `a\b`}, wantErr: true},
		{name: "parent project", key: Key{Owner: "acme", Project: ".."}, wantErr: true},
		{name: "project with slash", key: Key{Owner: "acme", Project: "../../../x"}, wantErr: true},
		{name: "parent branch", key: Key{Owner: "acme", Project: "widget", Branch: "../../x"}, wantErr: true},
		{name: "branch with empty segment", key: Key{Owner: "acme", Project: "widget", Branch: "a//b"}, wantErr: true},
		{name: "branch with trailing slash", key: Key{Owner: "acme", Project: "widget", Branch: "dev/"}, wantErr: true},
		{name: "branch with backslash", key: Key{Owner: "acme", Project: "widget", Branch: `a\b`}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(Location("/data", tt.key), "/data/"))
		})
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "acme", Key{Owner: "acme"}.String())
	assert.Equal(t, "acme/widget", Key{Owner: "acme", Project: "widget"}.String())
	assert.Equal(t, "acme/widget@dev", Key{Owner: "acme", Project: "widget", Branch: "dev"}.String())
}

func TestEnsureParent_Idempotent(t *testing.T) {
	p := Location(t.TempDir(), Key{Owner: "acme", Project: "widget", Branch: "dev"})

	require.NoError(t, EnsureParent(p))
	require.NoError(t, EnsureParent(p), "existing directory is not an error")

	info, err := os.Stat(filepath.Dir(p))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "watchtower")
	store := NewFileStore(root)

	t.Run("list on missing root", func(t *testing.T) {
		got, err := store.List(ctx)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("read missing", func(t *testing.T) {
		_, err := store.Read(ctx, Key{Owner: "acme"}.RelPath())
		assert.ErrorIs(t, err, ErrNotExist)
	})

	keys := []Key{
		{Owner: "acme"},
		{Owner: "acme", Project: "widget"},
		{Owner: "acme", Project: "widget", Branch: "dev"},
		{Owner: "acme", Project: "widget", Branch: "release/1.0"},
	}
	for _, k := range keys {
		require.NoError(t, store.Write(ctx, k.RelPath(), []byte("[]\n")))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0o600))

	t.Run("read back trimmed", func(t *testing.T) {
		got, err := store.Read(ctx, keys[1].RelPath())
		assert.NoError(t, err)
		assert.Equal(t, "[]", string(got))
	})

	t.Run("list only cache files", func(t *testing.T) {
		got, err := store.List(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{
			"projects/acme/widget/branches/dev/commits.json",
			"projects/acme/widget/branches/release/1.0/commits.json",
			"projects/acme/widget/commits.json",
			"users/acme/activity.json",
		}, got)
	})

	t.Run("files are private", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(keys[0].RelPath())))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	assert.Equal(t, root, store.Root())
}

func TestOpenStore_Local(t *testing.T) {
	root := t.TempDir()
	s, err := OpenStore(context.Background(), root)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}

func TestKey_Canonical(t *testing.T) {
	assert.Equal(t, Key{Owner: "acme"}, Key{Owner: "acme", Branch: "dev"}.Canonical())
	k := Key{Owner: "acme", Project: "widget", Branch: "dev"}
	assert.Equal(t, k, k.Canonical())
}
