// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/meta"
)

// InitApp loads the config file and builds the command tree.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	// The arg[1] immediately following the binary (arg[0]) is the subcommand
	// and also the namespace key used when retrieving config values. arg[1]
	// could be -h/--help, so ignore it if it appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoConfigFile) {
		return nil, err
	}
	log.Debugf("config: %q", cfg.Source)

	meta := meta.Meta{
		Args:    args,
		Config:  cfg.WithNamespace(ns),
		Context: ctx,
		Lookup:  os.LookupEnv,
	}

	app := &cli.Command{
		Name:  "watchtower",
		Usage: "GitHub activity and commit cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "watchtower version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		UpdateCommandBuilder(meta),
		LoadCommandBuilder(meta),
		SummaryCommandBuilder(meta),
		LsCommandBuilder(meta),
		CompletionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
