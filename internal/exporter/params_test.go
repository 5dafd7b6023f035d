package exporter

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
)

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"42", 42},
		{"  7 ", 7},
		{"3abc", 3},
		{"abc", 0},
		{"-5", -5},
		{"+9", 9},
		{"1.9", 1},
		{"99999999999999999999", 1<<63 - 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadingInt(tt.in), "leadingInt(%q)", tt.in)
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]int{
		"":    1,
		"0":   1,
		"-3":  1,
		"abc": 1,
		"1":   1,
		"4":   4,
		"2x":  2,
	} {
		assert.Equal(t, want, ParsePage(in), "ParsePage(%q)", in)
	}
}

func TestParseIDs(t *testing.T) {
	got := ParseIDs([]string{"5", "3", "5", "x", "0", "-2", "3", "12abc"})
	if diff := cmp.Diff([]int64{5, 3, 12}, got); diff != "" {
		t.Errorf("ParseIDs mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ParseIDs(nil))
}

func TestParseFilter(t *testing.T) {
	seven := int64(7)
	tests := []struct {
		name  string
		query string
		want  joblisting.Filter
	}{
		{"empty", "", joblisting.Filter{}},
		{"region", "job_region=north", joblisting.Filter{Region: "north"}},
		{"blank values", "job_region=&job_category=%20&job_author=", joblisting.Filter{}},
		{"all", "job_region=north&job_category=finance&job_author=7", joblisting.Filter{Region: "north", Category: "finance", AuthorID: &seven}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ParseFilter(v)); diff != "" {
				t.Errorf("ParseFilter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTermSummary(t *testing.T) {
	assert.Equal(t, "Regions: None", TermSummary("Regions", nil))
	assert.Equal(t, "Categories: Finance, IT", TermSummary("Categories", []joblisting.Term{
		{Slug: "finance", Name: "Finance"},
		{Slug: "it", Name: "IT"},
	}))
}

func TestPaginate(t *testing.T) {
	base, _ := url.Parse("/admin/tools.php?page=export-to-html&job_region=north&paged=5")

	assert.Nil(t, paginate(base, 1, 1))
	assert.Nil(t, paginate(base, 1, 0))

	links := paginate(base, 5, 10)
	labels := make([]string, len(links))
	for i, l := range links {
		labels[i] = l.Label
	}
	want := []string{"« Previous", "1", "…", "3", "4", "5", "6", "7", "…", "10", "Next »"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, links[5].Current)
	assert.Empty(t, links[5].URL)
	assert.Equal(t, "/admin/tools.php?job_region=north&page=export-to-html&paged=4", links[0].URL)
	assert.Equal(t, "/admin/tools.php?job_region=north&page=export-to-html&paged=10", links[9].URL)
}

func TestPaginate_FirstAndLast(t *testing.T) {
	base, _ := url.Parse("/admin/tools.php?page=export-to-html")

	first := paginate(base, 1, 3)
	assert.Equal(t, "1", first[0].Label)
	assert.Equal(t, "Next »", first[len(first)-1].Label)

	last := paginate(base, 3, 3)
	assert.Equal(t, "« Previous", last[0].Label)
	assert.True(t, last[len(last)-1].Current)
}
