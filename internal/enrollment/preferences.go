package enrollment

import (
	"sort"
	"strings"
)

// Preferences maps a course code to its ranked section name fragments. The zero value
// has no entries. It is immutable: the constructor and For both copy.
type Preferences struct {
	m map[string][]string
}

// NewPreferences copies m. Codes that are equal after trimming are merged, taking
// the raw keys in sorted order; entries already present (ignoring case) are dropped.
func NewPreferences(m map[string][]string) Preferences {
	keys := make([]string, 0, len(m))
	for code := range m {
		keys = append(keys, code)
	}
	sort.Strings(keys)

	out := make(map[string][]string, len(m))
	for _, raw := range keys {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		merged := out[code]
		if merged == nil {
			merged = []string{}
		}
		for _, p := range m[raw] {
			p = strings.TrimSpace(p)
			if p != "" && !containsFold(merged, p) {
				merged = append(merged, p)
			}
		}
		out[code] = merged
	}
	return Preferences{m: out}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// For returns the ranked preferences for a course, or nil when none are configured.
func (p Preferences) For(courseCode string) []string {
	list := p.m[courseCode]
	if len(list) == 0 {
		return nil
	}
	return append([]string(nil), list...)
}

// Courses returns the configured course codes in sorted order.
func (p Preferences) Courses() []string {
	out := make([]string, 0, len(p.m))
	for code := range p.m {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (p Preferences) Len() int { return len(p.m) }
