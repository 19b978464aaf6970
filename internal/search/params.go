// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Well-known parameter keys of the ClinicalTrials.gov v2 studies endpoint.
// All other keys pass through untouched.
const (
	KeyPageSize   = "pageSize"
	KeyPageToken  = "pageToken"
	KeyCountTotal = "countTotal"
	KeyStatus     = "filter.overallStatus"
	KeySort       = "sort"
	KeyCondition  = "query.cond"
	KeyFormat     = "format"
)

// Parameters is the opaque query/filter/sort/pagination map the agent hands
// to get_trials. Values are strings, numbers, bools, or string lists.
type Parameters map[string]any

// Clone returns a copy of p. List values are copied so the clone can be
// modified without touching p.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return Parameters{}
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		switch lv := v.(type) {
		case []string:
			out[k] = slices.Clone(lv)
		case []any:
			out[k] = slices.Clone(lv)
		default:
			out[k] = v
		}
	}
	return out
}

// NextPage returns the parameters for the page following the one that
// produced token: identical to p except pageToken is set and the one-time
// countTotal flag is dropped.
func (p Parameters) NextPage(token string) Parameters {
	next := p.Clone()
	delete(next, KeyCountTotal)
	next[KeyPageToken] = token
	return next
}

// Lookup returns the wire form of the value at key, or "" when absent.
func (p Parameters) Lookup(key string) string {
	s, _ := formatValue(p[key])
	return s
}

// Encode builds the query string: every present key as key=value, list
// values joined with "," before escaping, absent values omitted. Keys are
// emitted in sorted order.
func (p Parameters) Encode() string {
	values := url.Values{}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if s, ok := formatValue(p[k]); ok {
			values.Set(k, s)
		}
	}
	return values.Encode()
}

// formatValue renders a parameter value. ok is false for values that must
// be omitted from the query string.
func formatValue(v any) (string, bool) {
	switch tv := v.(type) {
	case nil:
		return "", false
	case string:
		return tv, tv != ""
	case bool:
		return strconv.FormatBool(tv), true
	case int:
		return strconv.Itoa(tv), true
	case int64:
		return strconv.FormatInt(tv, 10), true
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case []string:
		return joinList(tv)
	case []any:
		parts := make([]string, 0, len(tv))
		for _, item := range tv {
			if s, ok := formatValue(item); ok {
				parts = append(parts, s)
			}
		}
		return joinList(parts)
	default:
		return fmt.Sprint(tv), true
	}
}

func joinList(items []string) (string, bool) {
	var kept []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, ","), true
}

// truthy reports whether v is a true bool or its string form.
func truthy(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		b, err := strconv.ParseBool(tv)
		return err == nil && b
	default:
		return false
	}
}
