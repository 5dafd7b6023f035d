package exporter

import (
	"net/url"
	"strings"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
)

// Request parameter names of the export page.
const (
	ParamPage     = "paged"
	ParamRegion   = "job_region"
	ParamCategory = "job_category"
	ParamAuthor   = "job_author"
	ParamIDs      = "post_ids[]"
	ParamExport   = "export_html"
)

// leadingInt parses the optional sign and leading digits of s, ignoring
// surrounding whitespace and any trailing garbage. Anything else is 0.
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (1<<63-1-d)/10 {
			n = 1<<63 - 1
			break
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}

// ParsePage returns the requested listing page, never less than 1.
func ParsePage(raw string) int {
	n := leadingInt(raw)
	if n < 1 {
		return 1
	}
	if n > int64(maxPage) {
		return maxPage
	}
	return int(n)
}

const maxPage = 1 << 30

// ParseFilter reads the listing filters from the query string. Empty values
// impose no constraint.
func ParseFilter(v url.Values) joblisting.Filter {
	f := joblisting.Filter{
		Region:   strings.TrimSpace(v.Get(ParamRegion)),
		Category: strings.TrimSpace(v.Get(ParamCategory)),
	}
	if raw := strings.TrimSpace(v.Get(ParamAuthor)); raw != "" {
		id := leadingInt(raw)
		f.AuthorID = &id
	}
	return f
}

// ParseIDs integer-coerces the submitted identifiers, dropping duplicates
// and values that cannot name a record. Order of first appearance is kept.
func ParseIDs(raw []string) []int64 {
	seen := make(map[int64]bool, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id := leadingInt(s)
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
