package filter

import (
	"sort"
	"strings"
)

// MaxValuesPerFacet is the maximum number of values per filter facet.
const MaxValuesPerFacet = 16

// Filters is a structured chunk pre-filter. Values within a facet are OR'd,
// facets are AND'd: (act ∈ Acts) AND (domain ∈ Domains) AND (section = Section),
// each facet optional. An empty Filters means search unfiltered.
type Filters struct {
	acts    []string
	domains []string
	section string
}

// New creates Filters with each facet deduplicated and sorted, for
// deterministic fingerprinting. Facets are truncated to MaxValuesPerFacet.
func New(acts, domains []string, section string) Filters {
	return Filters{
		acts:    normalizeFacet(acts),
		domains: normalizeFacet(domains),
		section: strings.TrimSpace(section),
	}
}

// Acts returns the act-name facet.
func (f Filters) Acts() []string { return f.acts }

// Domains returns the domain-tag facet.
func (f Filters) Domains() []string { return f.domains }

// Section returns the explicit section reference, if any.
func (f Filters) Section() string { return f.section }

// IsEmpty reports whether no facet is set.
func (f Filters) IsEmpty() bool {
	return len(f.acts) == 0 && len(f.domains) == 0 && f.section == ""
}

// Merge returns f with any empty facet filled from other. Used to let an
// explicit caller override win over inferred filters facet by facet.
func (f Filters) Merge(other Filters) Filters {
	merged := f
	if len(merged.acts) == 0 {
		merged.acts = other.acts
	}
	if len(merged.domains) == 0 {
		merged.domains = other.domains
	}
	if merged.section == "" {
		merged.section = other.section
	}
	return merged
}

// Key returns a canonical string form for cache fingerprinting.
func (f Filters) Key() string {
	var b strings.Builder
	b.WriteString("acts=")
	b.WriteString(strings.Join(f.acts, ","))
	b.WriteString("|domains=")
	b.WriteString(strings.Join(f.domains, ","))
	b.WriteString("|section=")
	b.WriteString(f.section)
	return b.String()
}

func normalizeFacet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > MaxValuesPerFacet {
		out = out[:MaxValuesPerFacet]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
