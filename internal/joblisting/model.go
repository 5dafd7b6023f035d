// Package joblisting reads job-listing records, their taxonomy terms and
// their authors from the content store. It never writes.
package joblisting

import (
	"errors"
	"time"
)

const (
	// PostType is the content type every query is restricted to.
	PostType = "job-listings"

	// ReferenceMetaKey is the record attribute shown as "Reference Number".
	ReferenceMetaKey = "reference_number"

	// PageSize is the fixed listing page size.
	PageSize = 200

	// AuthorRole is the role whose users are offered in the author filter.
	AuthorRole = "author"
)

// Taxonomy names a family of terms attachable to a record.
type Taxonomy string

const (
	TaxonomyRegion   Taxonomy = "job_region"
	TaxonomyCategory Taxonomy = "job_category"
)

// ErrUserNotFound is returned when a user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// Term is a named tag (region or category).
type Term struct {
	Taxonomy Taxonomy
	Slug     string
	Name     string
}

// Record is one job listing as consumed by the listing and export views.
type Record struct {
	ID              int64
	CreatedAt       time.Time
	Title           string
	Slug            string
	Permalink       string
	ReferenceNumber string
	Regions         []Term
	Categories      []Term
	AuthorID        int64
}

// User is an account of the host platform.
type User struct {
	ID          int64
	Login       string
	DisplayName string
	Role        string
}

// Filter holds the optional equality constraints of the listing view.
// A zero field imposes no constraint on that dimension.
type Filter struct {
	Region   string
	Category string
	AuthorID *int64
}

// Query selects one page of records matching a Filter.
type Query struct {
	Filter Filter
	Page   int // 1-based
	Limit  int
}

// Offset returns the row offset of the query's page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Result is one page of matching records plus the total match count.
type Result struct {
	Records []Record
	Total   int
}

// TotalPages returns ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
