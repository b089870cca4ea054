// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	activityFile = "activity.json"
	commitsFile  = "commits.json"
)

// ErrInvalidKey is returned for keys whose parts would leave the data root.
var ErrInvalidKey = errors.New("invalid cache key")

// Key identifies one cached record set. Project and Branch are optional.
type Key struct {
	Owner   string
	Project string
	Branch  string
}

// Kind reports which of the three cache layouts the key maps to.
type Kind int

const (
	// UserActivity is <root>/users/<owner>/activity.json.
	UserActivity Kind = iota
	// ProjectCommits is <root>/projects/<owner>/<project>/commits.json.
	ProjectCommits
	// BranchCommits is <root>/projects/<owner>/<project>/branches/<branch>/commits.json.
	BranchCommits
)

func (k Kind) String() string {
	switch k {
	case UserActivity:
		return "user"
	case ProjectCommits:
		return "project"
	case BranchCommits:
		return "branch"
	}
	return "unknown"
}

// Kind is decided by which of Project and Branch are set. A branch without a
// project is ignored.
func (k Key) Kind() Kind {
	switch {
	case k.Project == "":
		return UserActivity
	case k.Branch == "":
		return ProjectCommits
	default:
		return BranchCommits
	}
}

// Canonical drops a branch that has no project, so keys that share a cache
// file compare equal.
func (k Key) Canonical() Key {
	if k.Project == "" {
		k.Branch = ""
	}
	return k
}

// Validate checks that every part of k maps to path segments below the data
// root. Owner and project are single segments. A branch may contain '/', as
// in release/1.0, but none of its segments may be empty, "." or "..".
func (k Key) Validate() error {
	if err := validSegment("owner", k.Owner); err != nil {
		return err
	}
	if k.Project == "" {
		return nil
	}
	if err := validSegment("project", k.Project); err != nil {
		return err
	}
	if k.Branch == "" {
		return nil
	}
	for _, seg := range strings.Split(k.Branch, "/") {
		if err := validSegment("branch", seg); err != nil {
			return fmt.Errorf("branch %q: %w", k.Branch, ErrInvalidKey)
		}
	}
	return nil
}

func validSegment(what, s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty %s: %w", what, ErrInvalidKey)
	case s == "." || s == "..", strings.ContainsAny(s, `/\`):
		return fmt.Errorf("%s %q: %w", what, s, ErrInvalidKey)
	}
	return nil
}

// RelPath returns the slash-separated location of the key below a data root.
func (k Key) RelPath() string {
	switch k.Kind() {
	case UserActivity:
		return path.Join("users", k.Owner, activityFile)
	case ProjectCommits:
		return path.Join("projects", k.Owner, k.Project, commitsFile)
	default:
		return path.Join("projects", k.Owner, k.Project, "branches", k.Branch, commitsFile)
	}
}

func (k Key) String() string {
	s := k.Owner
	if k.Project != "" {
		s += "/" + k.Project
		if k.Branch != "" {
			s += "@" + k.Branch
		}
	}
	return s
}

// Location returns the path of the cache file for k under root.
func Location(root string, k Key) string {
	if IsRemote(root) {
		base, _, _ := strings.Cut(root, "?")
		return strings.TrimSuffix(base, "/") + "/" + k.RelPath()
	}
	return filepath.Join(root, filepath.FromSlash(k.RelPath()))
}

// KeyFromRelPath is the inverse of Key.RelPath. ok is false for paths that
// are not one of the three cache layouts. Everything between branches/ and
// the file name is the branch, so release/1.0 round-trips.
func KeyFromRelPath(rel string) (Key, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	n := len(parts)

	var k Key
	switch {
	case n == 3 && parts[0] == "users" && parts[2] == activityFile:
		k = Key{Owner: parts[1]}
	case n == 4 && parts[0] == "projects" && parts[3] == commitsFile:
		k = Key{Owner: parts[1], Project: parts[2]}
	case n >= 6 && parts[0] == "projects" && parts[3] == "branches" && parts[n-1] == commitsFile:
		k = Key{Owner: parts[1], Project: parts[2], Branch: strings.Join(parts[4:n-1], "/")}
	default:
		return Key{}, false
	}

	if k.Validate() != nil {
		return Key{}, false
	}
	return k, true
}

// EnsureParent creates every missing parent directory of p. Directories that
// already exist are fine.
func EnsureParent(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// IsRemote reports whether root names an S3 location rather than a directory.
func IsRemote(root string) bool {
	return strings.HasPrefix(root, "s3://")
}
