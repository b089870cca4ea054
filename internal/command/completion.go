// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/meta"
)

const bashCompletionScript = `# bash completion for watchtower
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_watchtower()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "update load summary ls completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --local -l --data-home -d --examples --tldr"

    case "$cmd" in
        update)
            local opts="$common --branch -b --auth --since --max-pages --per-page"
            ;;
        load)
            local opts="$common --branch -b"
            ;;
        summary)
            local opts="$common --branch -b --type --match -m"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --data-home|-d)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
        --type)
            COMPREPLY=( $(compgen -W "PushEvent PullRequestEvent IssuesEvent IssueCommentEvent WatchEvent ForkEvent CreateEvent" -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _watchtower watchtower
`

const zshCompletionScript = `#compdef watchtower

_watchtower() {
  local -a cmds
  cmds=(
    'update:fetch and cache activity or commits'
    'load:show cached activity or commits'
    'summary:count cached records per day'
    'ls:list cached users, projects and branches'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '(-l --local)'{-l,--local}'[timestamps in display zone]'
  '(-d --data-home)'{-d,--data-home}'[cache root]:directory:_directories'
  '--examples[show usage examples]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'watchtower commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    update)
      _arguments -C \
        $common \
        '(-b --branch)'{-b,--branch}'[branch]:branch' \
        '--auth[user:token]:auth' \
        '--since[only records after]:since' \
        '--max-pages[maximum pages]:pages' \
        '--per-page[records per page]:count' \
        '1:owner' '2::project'
      ;;
    load)
      _arguments -C \
        $common \
        '(-b --branch)'{-b,--branch}'[branch]:branch' \
        '1:owner' '2::project'
      ;;
    summary)
      _arguments -C \
        $common \
        '(-b --branch)'{-b,--branch}'[branch]:branch' \
        '--type[event type]:type' \
        '(-m --match)'{-m,--match}'[query words]:words' \
        '1:owner' '2::project'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _watchtower watchtower
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(stdout(cmd), bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout(cmd), zshCompletionScript)
	default:
		fmt.Fprintln(stderr(cmd), "usage: watchtower completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "watchtower completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
