// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/meta"
)

// Default attrs per kind of cache.
var (
	activityAttrs = []string{"date", "type", "repo.name:repo"}
	commitAttrs   = []string{"date", "sha::7", "commit.author.name:author", "commit.message:message:f60"}
)

func defaultAttrs(k cacheutil.Key) []string {
	if k.Kind() == cacheutil.UserActivity {
		return activityAttrs
	}
	return commitAttrs
}

func LoadCommandAction(ctx context.Context, cmd *cli.Command) error {
	db, err := OpenDatabase(ctx, cmd, false)
	if err != nil {
		return err
	}

	k := KeyFromArgs(cmd)
	set, err := db.LoadRecords(ctx, k)
	if err != nil {
		return err
	}

	al := BuildAttrs(cmd, db.Settings.Location, defaultAttrs(k)...)
	return EmitRecords(cmd, set, db.Settings, al)
}

func LoadCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "load",
		Usage:     "show cached activity or commits",
		UsageText: `watchtower load <owner> [project] [options]`,
		Meta:      meta,
		Flags: []cli.Flag{
			NewBranchFlag(),
		},
		Before: KeyArgsValidator,
		Action: LoadCommandAction,
	}
	return qcb.Build()
}
