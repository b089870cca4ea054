// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package docgen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// Binary prefixes every generated page name.
const Binary = "watchtower"

//go:embed commands/*.md
var commandsFS embed.FS

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Example is one entry of a Quick examples block.
type Example struct {
	Desc string
	Cmd  string
}

// Commands lists the commands that have a doc page, sorted.
func Commands() []string {
	entries, _ := fs.ReadDir(commandsFS, "commands")
	var cmds []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			cmds = append(cmds, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Strings(cmds)
	return cmds
}

// Source returns the markdown page for cmd.
func Source(cmd string) ([]byte, error) {
	raw, err := commandsFS.ReadFile(path.Join("commands", cmd+".md"))
	if err != nil {
		return nil, fmt.Errorf("no doc page for %s: %w", cmd, err)
	}
	return raw, nil
}

// Man renders the man page for cmd.
func Man(cmd string) ([]byte, error) {
	raw, err := Source(cmd)
	if err != nil {
		return nil, err
	}
	return md2man.Render(raw), nil
}

// Examples returns the Quick examples of cmd.
func Examples(cmd string) ([]Example, error) {
	raw, err := Source(cmd)
	if err != nil {
		return nil, err
	}
	return extractQuickExamples(string(raw)), nil
}

// TLDR renders the tldr page for cmd.
func TLDR(cmd string) (string, error) {
	raw, err := Source(cmd)
	if err != nil {
		return "", err
	}
	title, short := extractTitleAndShortDesc(string(raw))
	return buildTLDR(cmd, title, short, extractQuickExamples(string(raw))), nil
}

// Generate writes <manDir>/watchtower-<cmd>.1 and <tldrDir>/watchtower-<cmd>.md
// for every command and returns how many commands it processed.
func Generate(manDir, tldrDir string, onlyIfChanged bool) (int, error) {
	if err := os.MkdirAll(manDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating man output dir: %w", err)
	}
	if err := os.MkdirAll(tldrDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating tldr output dir: %w", err)
	}

	var processed int
	for _, cmd := range Commands() {
		man, err := Man(cmd)
		if err != nil {
			return processed, err
		}
		manPath := filepath.Join(manDir, fmt.Sprintf("%s-%s.1", Binary, cmd))
		if err := writeFileIfChanged(manPath, man, onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", cmd, err)
		}

		tldr, err := TLDR(cmd)
		if err != nil {
			return processed, err
		}
		tldrPath := filepath.Join(tldrDir, fmt.Sprintf("%s-%s.md", Binary, cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing tldr for %s: %w", cmd, err)
		}

		processed++
	}

	if processed == 0 {
		return 0, errors.New("no command docs embedded")
	}
	return processed, nil
}

func writeFileIfChanged(path string, data []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, data, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, data, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}

// extractTitleAndShortDesc takes the title from the first H1 and the short
// description from the first paragraph under a "Short description" header.
func extractTitleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	idx := strings.Index(strings.ToLower(md), "short description")
	if idx >= 0 {
		rest := md[idx:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}

		var b strings.Builder
		for _, ln := range strings.Split(rest, "\n") {
			if strings.TrimSpace(ln) == "" {
				if b.Len() > 0 {
					break
				}
				continue
			}
			if strings.HasPrefix(ln, "#") {
				break
			}
			b.WriteString(strings.TrimSpace(ln))
			b.WriteString(" ")
		}
		short = strings.TrimSpace(b.String())
	}

	if short == "" && title != "" {
		short = title + "."
	}
	return
}

// extractQuickExamples reads the first fenced block after "Quick examples".
// A # line describes the command line that follows it.
func extractQuickExamples(md string) []Example {
	idx := strings.Index(strings.ToLower(md), "quick examples")
	if idx < 0 {
		return nil
	}

	const fence = "```"
	rest := md[idx:]
	start := strings.Index(rest, fence)
	if start < 0 {
		return nil
	}
	rest = rest[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return nil
	}

	var exs []Example
	desc := ""
	for _, ln := range strings.Split(rest[:end], "\n") {
		s := strings.TrimSpace(strings.TrimRight(ln, "\r"))
		switch {
		case s == "":
			continue
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, Example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(cmd, title, short string, exs []Example) string {
	var b strings.Builder
	b.WriteString("# " + Binary + "-" + cmd + "\n\n")
	switch {
	case short != "":
		b.WriteString("> " + short + "\n")
	case title != "":
		b.WriteString("> " + title + "\n")
	default:
		b.WriteString("> " + Binary + " " + cmd + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/watchtowergo.\n\n")

	if len(exs) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`" + Binary + " " + cmd + " --help`\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
