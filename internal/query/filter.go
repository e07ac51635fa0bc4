package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Limits bounds list pagination.
type Limits struct {
	Default int
	Max     int
}

var DefaultLimits = Limits{Default: 100, Max: 500}

// Clamp bounds the window of f: a non-positive limit becomes the default, a
// limit above the ceiling becomes the ceiling and a negative offset becomes 0.
// Unset bounds fall back to DefaultLimits.
func (l Limits) Clamp(f Filter) Filter {
	if l.Default <= 0 {
		l.Default = DefaultLimits.Default
	}
	if l.Max <= 0 {
		l.Max = DefaultLimits.Max
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}

	if f.Limit <= 0 {
		f.Limit = l.Default
	}
	if f.Limit > l.Max {
		f.Limit = l.Max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Filter enumerates every recognized list constraint. A nil field means no
// constraint; all set fields are combined with AND.
type Filter struct {
	Category     *string
	Origin       *string
	Region       *string
	HasWarning   *bool
	MinNutrition *float64
	HarvestMonth *int
	Search       *string

	Limit  int
	Offset int
}

// ParseFilter reads list parameters tolerantly: malformed or unknown values
// are dropped, never reported.
func ParseFilter(values url.Values, limits Limits) Filter {
	var f Filter

	category := values.Get("category")
	if category == "" {
		category = values.Get("type")
	}
	f.Category = enumParam(category)
	f.Origin = enumParam(values.Get("origin"))

	if region := strings.TrimSpace(values.Get("region")); region != "" {
		f.Region = &region
	}

	switch strings.ToLower(strings.TrimSpace(values.Get("hasWarning"))) {
	case "true", "1", "yes":
		v := true
		f.HasWarning = &v
	case "false", "0", "no":
		v := false
		f.HasWarning = &v
	}

	if raw := strings.TrimSpace(values.Get("minNutrition")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			f.MinNutrition = &v
		}
	}

	if raw := strings.TrimSpace(values.Get("harvestMonth")); raw != "" {
		if m, err := strconv.Atoi(raw); err == nil && m >= 1 && m <= 12 {
			f.HarvestMonth = &m
		}
	}

	if search := strings.TrimSpace(values.Get("search")); search != "" {
		f.Search = &search
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			f.Limit = n
		}
	}

	if raw := strings.TrimSpace(values.Get("offset")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			f.Offset = n
		}
	}

	return limits.Clamp(f)
}

// enumParam upper-cases a category or origin value; "ALL" means no constraint.
func enumParam(raw string) *string {
	v := strings.ToUpper(strings.Join(strings.Fields(raw), "_"))
	if v == "" || v == "ALL" {
		return nil
	}
	return &v
}

// Signature identifies the filter's result set; equal filters have equal
// signatures.
func (f Filter) Signature() string {
	var b strings.Builder
	field := func(name string, set bool, value any) {
		if set {
			fmt.Fprintf(&b, "%s=%q;", name, fmt.Sprint(value))
		}
	}
	field("category", f.Category != nil, deref(f.Category))
	field("origin", f.Origin != nil, deref(f.Origin))
	field("region", f.Region != nil, deref(f.Region))
	field("hasWarning", f.HasWarning != nil, deref(f.HasWarning))
	field("minNutrition", f.MinNutrition != nil, deref(f.MinNutrition))
	field("harvestMonth", f.HarvestMonth != nil, deref(f.HarvestMonth))
	field("search", f.Search != nil, deref(f.Search))
	fmt.Fprintf(&b, "limit=%d;offset=%d", f.Limit, f.Offset)
	return b.String()
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
