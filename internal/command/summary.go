// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/commits"
	"github.com/staranto/watchtowergo/internal/match"
	"github.com/staranto/watchtowergo/internal/meta"
)

func SummaryCommandAction(ctx context.Context, cmd *cli.Command) error {
	db, err := OpenDatabase(ctx, cmd, false)
	if err != nil {
		return err
	}

	pc, err := db.Load(ctx, KeyFromArgs(cmd))
	if err != nil {
		return err
	}

	if t := cmd.String("type"); t != "" {
		pc = pc.OfType(t)
	}
	if cmd.IsSet("match") {
		queries := match.SplitQueries(cmd.String("match"))
		log.Debugf("matching %v", queries)
		pc = pc.Matching(queries...)
	}

	al := BuildAttrs(cmd, db.Settings.Location, "day", "count")
	return EmitRows(cmd, dailyRows(pc.DailyCounts()), al)
}

func dailyRows(counts []commits.DayCount) []map[string]any {
	rows := make([]map[string]any, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, map[string]any{
			"day":   c.Day.Format(time.DateOnly),
			"count": c.Count,
		})
	}
	return rows
}

func SummaryCommandBuilder(meta meta.Meta) *cli.Command {
	qcb := QueryCommandBuilder{
		Name:      "summary",
		Usage:     "count cached records per day",
		UsageText: `watchtower summary <owner> [project] [options]`,
		Meta:      meta,
		Flags: []cli.Flag{
			NewBranchFlag(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "only count events of this type, e.g. PushEvent",
			},
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "only count commits whose message contains one of these comma-separated words; empty means " + match.DefaultQuery,
			},
		},
		Before: KeyArgsValidator,
		Action: SummaryCommandAction,
	}
	return qcb.Build()
}
