// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/watchtowergo/internal/command"
	"github.com/staranto/watchtowergo/internal/config"
	mylog "github.com/staranto/watchtowergo/internal/log"
	"github.com/staranto/watchtowergo/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		cfg, _ := config.Load()
		args = mangleArguments(args, cfg)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the flags listed under
// <command>.<set> in the config file, inserted right after the command. With
// no @set, <command>.defaults is used if present.
//
//	load:
//	  defaults: ["--titles", "--sort -date"]
//	  pushes: ["--filter type=PushEvent"]
//
// makes `watchtower load acme @pushes` read as
// `watchtower load --filter type=PushEvent acme`.
func mangleArguments(args []string, cfg config.Type) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the
	// binary and command and add --help.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:2]...), "--help")
		}
	}

	set := "defaults"
	working := make([]string, 0, len(args))
	for i, a := range args {
		if i >= 2 && strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			continue
		}
		working = append(working, a)
	}

	setArgs, _ := cfg.GetStringSlice(working[1] + "." + set)

	var inserted []string
	for _, arg := range setArgs {
		inserted = append(inserted, strings.Fields(arg)...)
	}

	result := append([]string{}, working[:2]...)
	result = append(result, inserted...)
	result = append(result, working[2:]...)

	log.Debugf("set=%s, args=%v", set, result)
	return result
}
