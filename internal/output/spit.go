// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"

	"github.com/staranto/watchtowergo/internal/attrs"
	"github.com/staranto/watchtowergo/internal/filters"
)

// Colors are the foreground colors of a text table.
type Colors struct {
	Title string
	Even  string
	Odd   string
}

// DefaultColors is used for any color the config file does not set.
var DefaultColors = Colors{Title: "#f6be00", Even: "#ffffff", Odd: "#00c8f0"}

// Options controls how a dataset is sliced and rendered.
type Options struct {
	// Output is one of text, json, yaml or raw.
	Output string
	Filter string
	Sort   string
	Titles bool
	Color  bool
	Colors Colors
	// Local adds the t transform to every attr.
	Local   bool
	Padding int
}

// SliceDiceSpit orchestrates filtering, sorting, transforming and rendering
// of raw, a JSON array of records, according to opts and attrs.
func SliceDiceSpit(raw []byte, attrs attrs.AttrList, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	// If raw, just dump it and go home.
	if opts.Output == "raw" {
		_, err := w.Write(raw)
		return err
	}

	dataset := filters.FilterDataset(gjson.ParseBytes(raw), attrs, opts.Filter)
	log.Debugf("filter %q kept %d rows", opts.Filter, len(dataset))

	// Sort before transforming so timestamps order by instant, not by how
	// they end up rendered.
	SortDataset(dataset, opts.Sort)

	if opts.Local {
		for a := range attrs {
			attrs[a].TransformSpec += "t"
		}
	}

	for _, row := range dataset {
		for _, attr := range attrs {
			if attr.TransformSpec != "" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	switch opts.Output {
	case "json":
		out, err := json.Marshal(included(dataset, attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(included(dataset, attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "", "text":
		TableWriter(dataset, attrs, opts, w)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", opts.Output)
	}
}

// DumpExamples renders a table of example command usages.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}

	var rows [][]string
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("Command", "Description").
		BorderHeader(false).
		Rows(rows...)

	fmt.Fprintln(w, t)
}

// included drops the attrs that were only wanted for filtering and sorting.
func included(dataset []map[string]interface{}, attrs attrs.AttrList) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(dataset))
	for _, row := range dataset {
		out := make(map[string]interface{}, len(row))
		for _, attr := range attrs {
			if attr.Include {
				out[attr.OutputKey] = row[attr.OutputKey]
			}
		}
		result = append(result, out)
	}
	return result
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(resultSet []map[string]interface{}, attrs attrs.AttrList, opts Options, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		c := opts.Colors.withDefaults()
		headerStyle = headerStyle.Foreground(lipgloss.Color(c.Title))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(c.Even))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(c.Odd))
	}

	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(attrs))
		for _, attr := range attrs {
			if !attr.Include {
				continue
			}
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}
			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		var headers []string
		for _, attr := range attrs {
			if attr.Include {
				headers = append(headers, attr.OutputKey)
			}
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	fmt.Fprintln(w, t)
}

func (c Colors) withDefaults() Colors {
	if c.Title == "" {
		c.Title = DefaultColors.Title
	}
	if c.Even == "" {
		c.Even = DefaultColors.Even
	}
	if c.Odd == "" {
		c.Odd = DefaultColors.Odd
	}
	return c
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Counts and ids are whole numbers.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
