// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// DisplayLayout is how the t transform renders a timestamp.
const DisplayLayout = "2006-01-02T15:04:05MST"

// now is swapped out in tests so relative dates are stable.
var now = time.Now

var lengthRegex = regexp.MustCompile(`-?\d+`)

// Attr represents each of the keys to be included in the output. Key is a
// dotted path into a record, e.g. commit.author.name.
type Attr struct {
	// The dotted path to extract from each record.
	Key string
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string
	// Transformation spec to apply to the output value.
	TransformSpec string
	// Location is the zone the t transform converts into. When nil the
	// value is left as is.
	Location *time.Location
}

// Transform applies TransformSpec to value. Only string values are
// transformed; anything else is returned untouched.
//
//	t  convert an RFC 3339 timestamp into Location
//	h  render an RFC 3339 timestamp relative to now, e.g. "3 days ago"
//	f  keep only the first line
//	l  lower case
//	u  upper case
//	N  truncate to N runes, -N elides the middle
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	// Relative wins over absolute when both are asked for.
	switch {
	case strings.ContainsAny(a.TransformSpec, "hH"):
		if t, err := time.Parse(time.RFC3339, result); err == nil {
			result = humanize.RelTime(t, now(), "ago", "from now")
		} else {
			log.Debugf("h transform: not a timestamp: %s", result)
		}
	case strings.ContainsAny(a.TransformSpec, "tT") && a.Location != nil:
		if t, err := time.Parse(time.RFC3339, result); err == nil {
			result = t.In(a.Location).Format(DisplayLayout)
		} else {
			log.Debugf("t transform: not a timestamp: %s", result)
		}
	}

	if strings.ContainsAny(a.TransformSpec, "fF") {
		result, _, _ = strings.Cut(result, "\n")
	}

	// The case transformation that appears last wins, so an attr's own spec
	// overrides a global one prepended to it. IOW... --attrs '*::U,type::l'
	// will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Same logic as above re: case. A more specific length overrides a
	// global one.
	if a.TransformSpec != "" {
		match := lengthRegex.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			l, _ := strconv.Atoi(match[len(match)-1])
			result = truncate(result, l)
		}
	}

	return result
}

// truncate shortens s to abs(l) runes. A negative l keeps both ends and
// joins them with "..".
func truncate(s string, l int) string {
	runes := []rune(s)
	abs := int(math.Abs(float64(l)))
	if abs == 0 || len(runes) <= abs {
		return s
	}

	if l > 0 {
		return string(runes[:l])
	}

	side := abs/2 - 1
	if side < 1 {
		return string(runes[:abs])
	}
	return string(runes[:side]) + ".." + string(runes[len(runes)-side:])
}

type AttrList []Attr

// Return a string representation of the AttrList. This should match the
// format of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses each spec from the --attrs flag and adds it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		keyIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec. The first is the path
	// to extract from the record. The second is the key to use in the output.
	// The third is the transformation spec. The latter two are optional. The
	// output key defaults to the last segment of the path.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}

		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")

		// A leading ! keeps the attr for filtering and sorting only.
		attr.Key = strings.TrimSpace(fields[keyIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		attr.Key = strings.TrimPrefix(attr.Key, ".")

		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) == 1 || fields[outputIdx] == "" {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the
		// command defaults or the user double-entered it) just apply the
		// OutputKey, Include and TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts the transform spec of a * attr into the
// front of all attrs in the list.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	// If there is more than one global spec, the first wins.
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}

	return nil
}

// SetLocation sets the zone used by the t transform on every attr.
func (a *AttrList) SetLocation(loc *time.Location) {
	for i := range *a {
		(*a)[i].Location = loc
	}
}

// Lookup returns the attr whose output key is key.
func (a AttrList) Lookup(key string) (Attr, bool) {
	for _, attr := range a {
		if attr.OutputKey == key {
			return attr, true
		}
	}
	return Attr{}, false
}

func (a *AttrList) Type() string {
	return "list"
}
