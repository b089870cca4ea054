// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/watchtowergo/internal/auth"
	"github.com/staranto/watchtowergo/internal/config"
)

func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

func newExamplesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "examples",
		Usage:       "show usage examples",
		HideDefault: true,
	}
}

// NewGlobalFlags returns the rendering flags shared by every command. ns is
// the command name and doubles as the config file namespace.
func NewGlobalFlags(ns string, cfg config.Type) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: isTerminal(os.Stdout),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml, raw)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		&cli.BoolFlag{
			Name:        "local",
			Aliases:     []string{"l"},
			Usage:       "show every timestamp in the display zone",
			HideDefault: true,
		},
		NewDataHomeFlag(ns, cfg),
	}

	return
}

// NewDataHomeFlag constructs the --data-home flag. The environment wins over
// the config file; with neither the default is resolved later.
func NewDataHomeFlag(ns string, cfg config.Type) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "data-home",
		Aliases: []string{"d"},
		Usage:   "cache root directory or s3://bucket/prefix URL",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("WATCHTOWER_DATA"),
		),
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, "data_home", cfg.Source, flag)
}

// NewBranchFlag constructs the --branch flag.
func NewBranchFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "branch",
		Aliases: []string{"b"},
		Usage:   "branch of the project (requires a project)",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}

// NewAuthFlag constructs the --auth flag. Only the environment is consulted;
// tokens do not belong in the config file.
func NewAuthFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "auth",
		Usage: "GitHub credentials as user:token or a bare token",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar(auth.TokenEnv),
		),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds the <ns>.<key> and bare <key>
// config file entries to the flag's Sources chain, in that order.
func NameSpacedValueChainFlagFromConfigFile(ns string, key string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+key, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(key, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
