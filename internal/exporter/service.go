// Package exporter implements the "Export to HTML" admin page: a filtered,
// paginated listing of job listings with a selection form, and the export
// of the selected records as a downloadable HTML document.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
)

var (
	// ErrEmptySelection means the export form was submitted with no ids.
	ErrEmptySelection = errors.New("no posts selected for export")
	// ErrNoRecords means none of the submitted ids named a job listing.
	ErrNoRecords = errors.New("no posts found for the selected ids")
)

// Store is the read side of the content store the page needs.
type Store interface {
	Find(ctx context.Context, q joblisting.Query) (*joblisting.Result, error)
	FindByIDs(ctx context.Context, ids []int64) ([]joblisting.Record, error)
	Terms(ctx context.Context, tax joblisting.Taxonomy) ([]joblisting.Term, error)
	Authors(ctx context.Context) ([]joblisting.User, error)
}

// Features switches the optional parts of the page.
type Features struct {
	Filters       bool
	TermSummaries bool
	ExportDate    bool
}

// Listing is everything the listing view renders.
type Listing struct {
	Filter     joblisting.Filter
	Regions    []joblisting.Term
	Categories []joblisting.Term
	Authors    []joblisting.User
	Rows       []joblisting.Record
	Page       int
	TotalPages int
	Total      int
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service builds listings and exports on top of a Store.
type Service struct {
	store    Store
	features Features
	perPage  int
}

func NewService(store Store, features Features) *Service {
	return &Service{store: store, features: features, perPage: joblisting.PageSize}
}

// Features returns the switches the service was built with.
func (s *Service) Features() Features { return s.features }

// Listing returns page of the records matching f together with the filter
// options. With filters switched off, f is ignored and no options are loaded.
func (s *Service) Listing(ctx context.Context, f joblisting.Filter, page int) (*Listing, error) {
	if page < 1 {
		page = 1
	}
	if !s.features.Filters {
		f = joblisting.Filter{}
	}

	out := &Listing{Filter: f, Page: page}
	if s.features.Filters {
		var err error
		if out.Regions, err = s.store.Terms(ctx, joblisting.TaxonomyRegion); err != nil {
			return nil, fmt.Errorf("load region terms: %w", err)
		}
		if out.Categories, err = s.store.Terms(ctx, joblisting.TaxonomyCategory); err != nil {
			return nil, fmt.Errorf("load category terms: %w", err)
		}
		if out.Authors, err = s.store.Authors(ctx); err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
	}

	res, err := s.store.Find(ctx, joblisting.Query{Filter: f, Page: page, Limit: s.perPage})
	if err != nil {
		return nil, fmt.Errorf("find job listings: %w", err)
	}
	out.Rows = res.Records
	out.Total = res.Total
	out.TotalPages = joblisting.TotalPages(res.Total, s.perPage)
	return out, nil
}

// Export resolves the submitted ids to job listings. The result does not
// depend on any listing filter or page. Ids that name no job listing are
// dropped without error.
func (s *Service) Export(ctx context.Context, rawIDs []string) ([]joblisting.Record, error) {
	if len(rawIDs) == 0 {
		return nil, ErrEmptySelection
	}
	ids := ParseIDs(rawIDs)
	if len(ids) == 0 {
		return nil, ErrNoRecords
	}

	records, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find selected job listings: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// TermSummary renders "<label>: a, b" or "<label>: None".
func TermSummary(label string, terms []joblisting.Term) string {
	if len(terms) == 0 {
		return label + ": None"
	}
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.Name
	}
	return label + ": " + strings.Join(names, ", ")
}
