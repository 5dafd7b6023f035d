package joblisting

import (
	"fmt"
	"strings"
)

// recordColumns selects a record with its reference number and term sets.
// Term arrays are ordered by name so summaries read the same everywhere.
const recordColumns = `
	p.id, p.created_at, p.title, p.slug, COALESCE(p.author_id, 0),
	COALESCE(m.meta_value, ''),
	ARRAY(SELECT t.slug FROM post_terms pt JOIN terms t ON t.id = pt.term_id
	      WHERE pt.post_id = p.id AND t.taxonomy = 'job_region' ORDER BY t.name, t.slug),
	ARRAY(SELECT t.name FROM post_terms pt JOIN terms t ON t.id = pt.term_id
	      WHERE pt.post_id = p.id AND t.taxonomy = 'job_region' ORDER BY t.name, t.slug),
	ARRAY(SELECT t.slug FROM post_terms pt JOIN terms t ON t.id = pt.term_id
	      WHERE pt.post_id = p.id AND t.taxonomy = 'job_category' ORDER BY t.name, t.slug),
	ARRAY(SELECT t.name FROM post_terms pt JOIN terms t ON t.id = pt.term_id
	      WHERE pt.post_id = p.id AND t.taxonomy = 'job_category' ORDER BY t.name, t.slug)`

const recordFrom = `
	FROM posts p
	LEFT JOIN post_meta m ON m.post_id = p.id AND m.meta_key = 'reference_number'`

const termPredicate = `EXISTS (
	SELECT 1 FROM post_terms pt JOIN terms t ON t.id = pt.term_id
	WHERE pt.post_id = p.id AND t.taxonomy = %s AND t.slug = %s)`

// listOrder matches the host platform's default: newest first.
const listOrder = ` ORDER BY p.created_at DESC, p.id DESC`

// whereClause builds the predicate for a Filter. Arguments are numbered
// from $1; the post type is always the first.
func whereClause(f Filter) (string, []any) {
	args := []any{PostType}
	preds := []string{"p.post_type = $1"}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Region != "" {
		tax := next(string(TaxonomyRegion))
		preds = append(preds, fmt.Sprintf(termPredicate, tax, next(f.Region)))
	}
	if f.Category != "" {
		tax := next(string(TaxonomyCategory))
		preds = append(preds, fmt.Sprintf(termPredicate, tax, next(f.Category)))
	}
	if f.AuthorID != nil {
		preds = append(preds, "p.author_id = "+next(*f.AuthorID))
	}

	return " WHERE " + strings.Join(preds, " AND "), args
}

// findSQL returns the page query and the count query for q.
func findSQL(q Query) (page string, count string, args []any) {
	where, args := whereClause(q.Filter)

	count = `SELECT COUNT(*) FROM posts p` + where

	n := len(args)
	page = `SELECT` + recordColumns + recordFrom + where + listOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	return page, count, args
}

// byIDsSQL fetches records by id, restricted to the listing post type.
func byIDsSQL() string {
	return `SELECT` + recordColumns + recordFrom +
		` WHERE p.post_type = $1 AND p.id = ANY($2)` + listOrder
}
