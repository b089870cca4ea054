// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // display zone must resolve on hosts without zoneinfo
)

const (
	// DateTimeFormat is the layout used for the date field of every persisted
	// record. It is not negotiable at the call site.
	DateTimeFormat = time.RFC3339

	// DisplayZone is the zone records are re-expressed in after loading.
	DisplayZone = "America/Los_Angeles"

	DefaultAPIRoot  = "https://api.github.com/"
	DefaultMaxPages = 100
	DefaultPerPage  = 100

	dataHomeEnv     = "WATCHTOWER_DATA"
	defaultDataHome = "watchtower_data"
)

// LookupFunc resolves environment-style variables. os.LookupEnv satisfies it.
type LookupFunc func(string) (string, bool)

// Settings is the explicit configuration handed to every cache and fetch
// operation.
type Settings struct {
	DataHome       string
	APIRoot        string
	DateTimeFormat string
	Location       *time.Location
	MaxPages       int
	PerPage        int
}

// Defaults returns Settings rooted at dataHome with everything else at its
// default value.
func Defaults(dataHome string) (Settings, error) {
	loc, err := time.LoadLocation(DisplayZone)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load display zone %s: %w", DisplayZone, err)
	}

	return Settings{
		DataHome:       dataHome,
		APIRoot:        DefaultAPIRoot,
		DateTimeFormat: DateTimeFormat,
		Location:       loc,
		MaxPages:       DefaultMaxPages,
		PerPage:        DefaultPerPage,
	}, nil
}

// Resolve builds Settings from the config file and the environment. override
// is the explicit data home, usually from a flag, and wins over everything.
func Resolve(cfg Type, override string, lookup LookupFunc) (Settings, error) {
	home, err := DataHome(cfg, override, lookup)
	if err != nil {
		return Settings{}, err
	}

	s, err := Defaults(home)
	if err != nil {
		return Settings{}, err
	}

	s.APIRoot, _ = cfg.GetString("api_root", DefaultAPIRoot)
	s.MaxPages, _ = cfg.GetInt("max_pages", DefaultMaxPages)
	s.PerPage, _ = cfg.GetInt("per_page", DefaultPerPage)

	return s, nil
}

// DataHome resolves the effective data root. Precedence:
//  1. override, if non-empty
//  2. WATCHTOWER_DATA
//  3. data_home in the config file
//  4. ~/watchtower_data
func DataHome(cfg Type, override string, lookup LookupFunc) (string, error) {
	if override != "" {
		return expandHome(override)
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(dataHomeEnv); ok && v != "" {
		return expandHome(v)
	}

	if v, err := cfg.GetString("data_home"); err == nil && v != "" {
		return expandHome(v)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, defaultDataHome), nil
}

// expandHome replaces a leading ~ with the user's home directory. Remote
// roots such as s3:// URLs pass through untouched.
func expandHome(p string) (string, error) {
	if p != "~" && !hasHomePrefix(p) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

func hasHomePrefix(p string) bool {
	return len(p) > 1 && p[0] == '~' && (p[1] == '/' || p[1] == filepath.Separator)
}
