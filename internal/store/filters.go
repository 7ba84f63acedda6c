package store

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Op string

const (
	OpEq    Op = "eq"
	OpILike Op = "ilike"
	OpGTE   Op = "gte"
	OpLTE   Op = "lte"
)

// Filter is a single parameterised predicate on an allow-listed column.
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// FilterRule maps a query parameter onto a column predicate.
type FilterRule struct {
	Param  string
	Column string
	Op     Op
	Parse  func(string) (interface{}, error)
}

// ListQuery selects and orders the rows returned by a List call.
type ListQuery struct {
	Filters []Filter
	Sort    string
	Limit   int
}

// FiltersFromQuery builds filters for the parameters present in values.
// Parameters without a rule, and empty values, are ignored.
func FiltersFromQuery(values url.Values, rules []FilterRule) ([]Filter, error) {
	var out []Filter
	for _, r := range rules {
		raw := strings.TrimSpace(values.Get(r.Param))
		if raw == "" {
			continue
		}
		var v interface{} = raw
		if r.Parse != nil {
			parsed, err := r.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", r.Param, err)
			}
			v = parsed
		}
		out = append(out, Filter{Column: r.Column, Op: r.Op, Value: v})
	}
	return out, nil
}

// allowed drops filters whose column/op pair no rule declares.
func allowed(filters []Filter, rules []FilterRule) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if s, ok := f.Value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		for _, r := range rules {
			if r.Column == f.Column && r.Op == f.Op {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func applyFilters(q *gorm.DB, filters []Filter, rules []FilterRule) *gorm.DB {
	for _, f := range allowed(filters, rules) {
		switch f.Op {
		case OpEq:
			q = q.Where(f.Column+" = ?", f.Value)
		case OpILike:
			q = q.Where(f.Column+" ILIKE ?", "%"+escapeLike(fmt.Sprint(f.Value))+"%")
		case OpGTE:
			q = q.Where(f.Column+" >= ?", f.Value)
		case OpLTE:
			q = q.Where(f.Column+" <= ?", f.Value)
		}
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ParseID parses a positive numeric identifier.
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func parseIDValue(s string) (interface{}, error) { return ParseID(s) }

func parseTimeValue(s string) (interface{}, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
}

var (
	PostFilters = []FilterRule{
		{Param: "type", Column: "type", Op: OpEq},
		{Param: "category", Column: "category", Op: OpEq},
		{Param: "status", Column: "status", Op: OpEq},
		{Param: "priority", Column: "priority", Op: OpEq},
		{Param: "owner_id", Column: "owner_id", Op: OpEq, Parse: parseIDValue},
		{Param: "location", Column: "location", Op: OpILike},
		{Param: "q", Column: "title", Op: OpILike},
	}
	DonationFilters = []FilterRule{
		{Param: "kind", Column: "kind", Op: OpEq},
		{Param: "status", Column: "status", Op: OpEq},
		{Param: "owner_id", Column: "owner_id", Op: OpEq, Parse: parseIDValue},
		{Param: "location", Column: "location", Op: OpILike},
	}
	EventFilters = []FilterRule{
		{Param: "status", Column: "status", Op: OpEq},
		{Param: "owner_id", Column: "owner_id", Op: OpEq, Parse: parseIDValue},
		{Param: "location", Column: "location", Op: OpILike},
		{Param: "from", Column: "start_at", Op: OpGTE, Parse: parseTimeValue},
		{Param: "to", Column: "start_at", Op: OpLTE, Parse: parseTimeValue},
	}
	IncidentFilters = []FilterRule{
		{Param: "category", Column: "category", Op: OpEq},
		{Param: "severity", Column: "severity", Op: OpEq},
		{Param: "status", Column: "status", Op: OpEq},
		{Param: "reporter_id", Column: "reporter_id", Op: OpEq, Parse: parseIDValue},
		{Param: "location", Column: "location", Op: OpILike},
	}
	LearningFilters = []FilterRule{
		{Param: "subject", Column: "subject", Op: OpILike},
		{Param: "level", Column: "level", Op: OpEq},
		{Param: "session_type", Column: "session_type", Op: OpEq},
		{Param: "status", Column: "status", Op: OpEq},
		{Param: "owner_id", Column: "owner_id", Op: OpEq, Parse: parseIDValue},
	}
)
