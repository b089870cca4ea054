// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/attrs"
	"github.com/staranto/watchtowergo/internal/auth"
	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/commits"
	"github.com/staranto/watchtowergo/internal/config"
	"github.com/staranto/watchtowergo/internal/docgen"
	"github.com/staranto/watchtowergo/internal/meta"
	"github.com/staranto/watchtowergo/internal/output"
	"github.com/staranto/watchtowergo/internal/record"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr watchtower-<subcmd>` and returns true so the caller can exit
// early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if !cmd.Bool("tldr") {
		return false
	}
	if _, err := exec.LookPath("tldr"); err == nil {
		c := exec.CommandContext(ctx, "tldr", docgen.Binary+"-"+subcmd)
		c.Stdout = stdout(cmd)
		c.Stderr = stderr(cmd)
		_ = c.Run()
	}
	return true
}

// ShortCircuitExamples prints the quick examples of subcmd when --examples
// is set and returns true if it did.
func ShortCircuitExamples(cmd *cli.Command, subcmd string) bool {
	if !cmd.Bool("examples") {
		return false
	}
	exs, err := docgen.Examples(subcmd)
	if err != nil {
		log.WithError(err).Debug("no examples")
		return true
	}
	rows := make([][2]string, 0, len(exs))
	for _, ex := range exs {
		rows = append(rows, [2]string{ex.Cmd, ex.Desc})
	}
	output.DumpExamples(stdout(cmd), rows)
	return true
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec and the display zone.
func BuildAttrs(cmd *cli.Command, loc *time.Location, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	al.SetLocation(loc)
	return
}

// ResolveSettings builds the Settings for this invocation from the config
// file, --data-home and the environment.
func ResolveSettings(cmd *cli.Command) (config.Settings, error) {
	m := GetMeta(cmd)
	settings, err := config.Resolve(m.Config, cmd.String("data-home"), m.Lookup)
	if err != nil {
		return config.Settings{}, err
	}
	log.Debugf("data home: %s", settings.DataHome)
	return settings, nil
}

// OpenDatabase opens the cache for this invocation. Credentials are resolved
// only when withAuth is set, so read-only commands work without a token.
func OpenDatabase(ctx context.Context, cmd *cli.Command, withAuth bool) (*commits.Database, error) {
	settings, err := ResolveSettings(cmd)
	if err != nil {
		return nil, err
	}

	var creds auth.Credentials
	if withAuth {
		creds, err = auth.Resolve(cmd.String("auth"), auth.LookupFunc(GetMeta(cmd).Lookup))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credentials: %w", err)
		}
		log.Debugf("credentials: %s", creds)
	}

	db, err := commits.Open(ctx, settings, creds)
	if err != nil {
		return nil, err
	}
	db.SetNotices(stderr(cmd))
	return db, nil
}

// KeyFromArgs reads <owner> [project] and --branch. A branch without a
// project is ignored.
func KeyFromArgs(cmd *cli.Command) cacheutil.Key {
	k := cacheutil.Key{
		Owner:   cmd.Args().Get(0),
		Project: cmd.Args().Get(1),
		Branch:  cmd.String("branch"),
	}
	if k.Branch != "" && k.Project == "" {
		log.Warnf("ignoring --branch %s without a project", k.Branch)
		fmt.Fprintf(stderr(cmd), "warning: --branch %s ignored without a project\n", k.Branch)
	}
	return k.Canonical()
}

// OutputOptions gathers the rendering flags and the color settings from the
// config file.
func OutputOptions(cmd *cli.Command) output.Options {
	cfg := GetMeta(cmd).Config
	colors := output.Colors{}
	colors.Title, _ = cfg.GetString("colors.title", "")
	colors.Even, _ = cfg.GetString("colors.even", "")
	colors.Odd, _ = cfg.GetString("colors.odd", "")
	padding, _ := cfg.GetInt("padding", 0)

	return output.Options{
		Output:  cmd.String("output"),
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Titles:  cmd.Bool("titles"),
		Color:   cmd.Bool("color"),
		Colors:  colors,
		Local:   cmd.Bool("local"),
		Padding: padding,
	}
}

// EmitRecords renders a record set. The raw output is the set exactly as it
// would be written to the cache.
func EmitRecords(cmd *cli.Command, set record.Set, settings config.Settings, al attrs.AttrList) error {
	if cmd.String("output") == "raw" {
		raw, err := record.Encode(set, settings.DateTimeFormat)
		if err != nil {
			return err
		}
		return output.SliceDiceSpit(raw, al, OutputOptions(cmd), stdout(cmd))
	}
	return EmitRows(cmd, set.In(settings.Location).Rows(settings.DateTimeFormat), al)
}

// EmitRows marshals rows and passes them to the common output routine.
func EmitRows(cmd *cli.Command, rows []map[string]any, al attrs.AttrList) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	return output.SliceDiceSpit(raw, al, OutputOptions(cmd), stdout(cmd))
}

// IsNotice reports whether err is an outcome that has already been reported
// to the user as a notice rather than a failure.
func IsNotice(err error) bool {
	return errors.Is(err, commits.ErrNoData) || errors.Is(err, commits.ErrNoActivity)
}

// QueryCommandBuilder constructs a cli.Command for the subcommands using a
// consistent pattern. The builder wires metadata, adds the tldr and examples
// flags, applies global flags and sets up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	// Before replaces GlobalFlagsValidator when set.
	Before func(context.Context, *cli.Command) error
	Action func(context.Context, *cli.Command) error
	Meta   meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	before := qcb.Before
	if before == nil {
		before = GlobalFlagsValidator
	}

	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			newTLDRFlag(),
			newExamplesFlag(),
		}, NewGlobalFlags(qcb.Name, qcb.Meta.Config)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Help-only flags skip argument validation.
			if c.Bool("tldr") || c.Bool("examples") {
				return ctx, nil
			}
			return ctx, before(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.Debugf("Executing action for %v", GetMeta(c).Args)
			if ShortCircuitTLDR(ctx, c, qcb.Name) || ShortCircuitExamples(c, qcb.Name) {
				return nil
			}
			err := qcb.Action(ctx, c)
			if IsNotice(err) {
				log.WithError(err).Debug("reported as notice")
				return nil
			}
			return err
		},
	}
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
