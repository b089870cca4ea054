// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commits

import (
	"fmt"
	"sort"
	"time"

	"github.com/staranto/watchtowergo/internal/cacheutil"
	"github.com/staranto/watchtowergo/internal/match"
	"github.com/staranto/watchtowergo/internal/record"
)

// ProjectCommits is a loaded record set together with the key it belongs to.
type ProjectCommits struct {
	Key     cacheutil.Key
	Records record.Set

	loc *time.Location
}

// DayCount is the number of records that fell on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int
}

func NewProjectCommits(k cacheutil.Key, set record.Set, loc *time.Location) *ProjectCommits {
	if loc == nil {
		loc = time.UTC
	}
	return &ProjectCommits{Key: k, Records: set, loc: loc}
}

func (p *ProjectCommits) User() string    { return p.Key.Owner }
func (p *ProjectCommits) Project() string { return p.Key.Project }
func (p *ProjectCommits) Len() int        { return len(p.Records) }

func (p *ProjectCommits) String() string {
	if len(p.Records) == 0 {
		return fmt.Sprintf("%s: 0 records", p.Key)
	}
	first, last := p.Span()
	return fmt.Sprintf("%s: %d records, %s .. %s", p.Key, len(p.Records),
		first.Format(time.DateOnly), last.Format(time.DateOnly))
}

// Span returns the earliest and latest record dates.
func (p *ProjectCommits) Span() (first, last time.Time) {
	for i, r := range p.Records {
		if i == 0 || r.Date.Before(first) {
			first = r.Date
		}
		if i == 0 || r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last
}

// ByType groups activity events by their type field, e.g. PushEvent. Commit
// records have no type and land under "".
func (p *ProjectCommits) ByType() map[string]record.Set {
	groups := make(map[string]record.Set)
	for _, r := range p.Records {
		t := r.String("type")
		groups[t] = append(groups[t], r)
	}
	return groups
}

// Types returns the distinct event types, sorted.
func (p *ProjectCommits) Types() []string {
	groups := p.ByType()
	types := make([]string, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Filter returns the records for which keep is true, under the same key.
func (p *ProjectCommits) Filter(keep func(record.Record) bool) *ProjectCommits {
	var kept record.Set
	for _, r := range p.Records {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return NewProjectCommits(p.Key, kept, p.loc)
}

// OfType keeps the records whose type field equals eventType.
func (p *ProjectCommits) OfType(eventType string) *ProjectCommits {
	return p.Filter(func(r record.Record) bool {
		return r.String("type") == eventType
	})
}

// Matching keeps commits whose message contains any of queries, using the
// default query when none are given.
func (p *ProjectCommits) Matching(queries ...string) *ProjectCommits {
	return p.Filter(func(r record.Record) bool {
		return match.FindWord(Message(r), queries...)
	})
}

// DailyCounts buckets records by calendar day in the display zone, oldest
// first. Days without records are omitted.
func (p *ProjectCommits) DailyCounts() []DayCount {
	counts := make(map[time.Time]int)
	for _, r := range p.Records {
		d := r.Date.In(p.loc)
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.loc)
		counts[day]++
	}

	result := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		result = append(result, DayCount{Day: day, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day.Before(result[j].Day)
	})
	return result
}

// Message returns the commit message of a commit record, or the head commit
// message of a push event.
func Message(r record.Record) string {
	if m := r.String("commit.message"); m != "" {
		return m
	}
	if commits, ok := r.Get("payload.commits").([]any); ok && len(commits) > 0 {
		if c, ok := commits[len(commits)-1].(map[string]any); ok {
			m, _ := c["message"].(string)
			return m
		}
	}
	return ""
}
