// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"io"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/commits"
	"github.com/staranto/watchtowergo/internal/meta"
)

func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	db, err := OpenDatabase(ctx, cmd, false)
	if err != nil {
		return err
	}
	// Empty or unreadable caches are listed with zero records.
	db.SetNotices(io.Discard)

	keys, err := db.Keys(ctx)
	if err != nil {
		return err
	}
	log.Debugf("ls: %d keys under %s", len(keys), db.Store.Root())

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		pc, err := db.Load(ctx, k)
		if errors.Is(err, commits.ErrNoData) {
			pc = commits.NewProjectCommits(k, nil, db.Settings.Location)
		} else if err != nil {
			return err
		}
		rows = append(rows, summaryRow(pc, db.Settings))
	}

	al := BuildAttrs(cmd, db.Settings.Location, summaryAttrs...)
	return EmitRows(cmd, rows, al)
}

func LsCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "ls",
		Usage:     "list cached users, projects and branches",
		UsageText: `watchtower ls [options]`,
		Meta:      meta,
		Action:    LsCommandAction,
	}
	return qcb.Build()
}
