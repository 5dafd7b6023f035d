package exporter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
)

//go:embed templates/*.html
var templateFS embed.FS

// DateLayout is how record dates are printed on the page and in exports.
const DateLayout = "2006-01-02 15:04:05"

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"summary": TermSummary,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	},
}).ParseFS(templateFS, "templates/*.html"))

type listingView struct {
	Title       string
	Slug        string
	Notice      string
	Features    Features
	Listing     *Listing
	AuthorValue string
	Pages       []pageLink
}

type exportView struct {
	Records   []joblisting.Record
	ShowDate  bool
	Summaries bool
}

// RenderExport writes the standalone export document for records.
func RenderExport(records []joblisting.Record, f Features) ([]byte, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "export.html", exportView{
		Records:   records,
		ShowDate:  f.ExportDate,
		Summaries: f.TermSummaries,
	})
	if err != nil {
		return nil, fmt.Errorf("render export document: %w", err)
	}
	return buf.Bytes(), nil
}

func renderListing(v listingView) ([]byte, error) {
	if v.Listing.Filter.AuthorID != nil {
		v.AuthorValue = strconv.FormatInt(*v.Listing.Filter.AuthorID, 10)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "listing.html", v); err != nil {
		return nil, fmt.Errorf("render listing page: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Pagination ──────────────────────────────────────────────────────────────

type pageLink struct {
	Label   string
	URL     string
	Current bool
}

const (
	endSize = 1 // pages always shown at each end
	midSize = 2 // pages shown either side of the current one
)

// paginate builds the page-link control. It keeps every parameter of base
// and only replaces "paged". No links are produced for a single page.
func paginate(base *url.URL, current, total int) []pageLink {
	if total <= 1 {
		return nil
	}
	link := func(n int) string {
		u := *base
		q := u.Query()
		q.Set(ParamPage, strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.RequestURI()
	}

	var out []pageLink
	if current > 1 {
		out = append(out, pageLink{Label: "« Previous", URL: link(current - 1)})
	}
	dots := false
	for n := 1; n <= total; n++ {
		switch {
		case n == current:
			out = append(out, pageLink{Label: strconv.Itoa(n), Current: true})
			dots = true
		case n <= endSize || n > total-endSize || (n >= current-midSize && n <= current+midSize):
			out = append(out, pageLink{Label: strconv.Itoa(n), URL: link(n)})
			dots = true
		case dots:
			out = append(out, pageLink{Label: "…"})
			dots = false
		}
	}
	if current < total {
		out = append(out, pageLink{Label: "Next »", URL: link(current + 1)})
	}
	return out
}
