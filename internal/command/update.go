// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/commits"
	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/meta"
)

// summaryAttrs render the one-line-per-key summaries of update and ls.
var summaryAttrs = []string{"key", "kind", "records", "first", "last::h"}

func UpdateCommandAction(ctx context.Context, cmd *cli.Command) error {
	db, err := OpenDatabase(ctx, cmd, true)
	if err != nil {
		return err
	}

	req := commits.UpdateRequest{
		Key:      KeyFromArgs(cmd),
		Since:    normalizeSince(cmd.String("since")),
		MaxPages: cmd.Int("max-pages"),
		PerPage:  cmd.Int("per-page"),
	}
	log.Debugf("update request: %+v", req)

	pc, err := db.Update(ctx, req)
	if err != nil {
		return err
	}

	al := BuildAttrs(cmd, db.Settings.Location, summaryAttrs...)
	return EmitRows(cmd, []map[string]any{summaryRow(pc, db.Settings)}, al)
}

func UpdateCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	qcb := QueryCommandBuilder{
		Name:      "update",
		Usage:     "fetch and cache activity or commits",
		UsageText: `watchtower update <owner> [project] [options]`,
		Meta:      meta,
		Flags: []cli.Flag{
			NewBranchFlag(),
			NewAuthFlag(),
			&cli.StringFlag{
				Name:  "since",
				Usage: "only fetch records after this RFC 3339 time or date",
				Validator: func(value string) error {
					return FlagValidators(value, SinceValidator)
				},
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "maximum number of pages to request",
				Value: config.DefaultMaxPages,
				Sources: cli.NewValueSourceChain(
					yaml.YAML("update.max_pages", altsrc.StringSourcer(src)),
					yaml.YAML("max_pages", altsrc.StringSourcer(src)),
				),
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "records requested per page",
				Value: config.DefaultPerPage,
				Sources: cli.NewValueSourceChain(
					yaml.YAML("update.per_page", altsrc.StringSourcer(src)),
					yaml.YAML("per_page", altsrc.StringSourcer(src)),
				),
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
		},
		Before: KeyArgsValidator,
		Action: UpdateCommandAction,
	}
	return qcb.Build()
}

// normalizeSince widens a plain date to midnight UTC.
func normalizeSince(s string) string {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}

// summaryRow describes one loaded cache key.
func summaryRow(pc *commits.ProjectCommits, settings config.Settings) map[string]any {
	row := map[string]any{
		"key":     pc.Key.String(),
		"kind":    pc.Key.Kind().String(),
		"records": pc.Len(),
	}
	if pc.Len() > 0 {
		first, last := pc.Span()
		row["first"] = first.In(settings.Location).Format(settings.DateTimeFormat)
		row["last"] = last.In(settings.Location).Format(settings.DateTimeFormat)
	}
	return row
}
