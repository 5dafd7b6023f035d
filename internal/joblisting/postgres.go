package joblisting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Permalinks resolves a record slug to its public URL.
type Permalinks struct {
	Base string // site root, e.g. "https://jobs.example.com"
}

// For returns Base/job-listings/<slug>/.
func (p Permalinks) For(slug string) string {
	return strings.TrimRight(p.Base, "/") + "/" + PostType + "/" + slug + "/"
}

// PostgresStore reads records from the content store's PostgreSQL schema.
type PostgresStore struct {
	pool       *pgxpool.Pool
	permalinks Permalinks
}

// NewPostgresStore returns a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool, permalinks Permalinks) *PostgresStore {
	return &PostgresStore{pool: pool, permalinks: permalinks}
}

// Find returns one page of records matching q and the total match count.
// A page past the end yields no records and no error.
func (s *PostgresStore) Find(ctx context.Context, q Query) (*Result, error) {
	pageSQL, countSQL, args := findSQL(q)

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("find count: %w", err)
	}

	rows, err := s.pool.Query(ctx, pageSQL, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("find query: %w", err)
	}
	records, err := s.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return &Result{Records: records, Total: total}, nil
}

// FindByIDs returns every listing whose id is in ids. Ids that do not exist
// or belong to another post type are dropped.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []int64) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, byIDsSQL(), PostType, ids)
	if err != nil {
		return nil, fmt.Errorf("findByIDs query: %w", err)
	}
	records, err := s.scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("findByIDs: %w", err)
	}
	return records, nil
}

// Terms returns every term of a taxonomy, ordered by name.
func (s *PostgresStore) Terms(ctx context.Context, tax Taxonomy) ([]Term, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slug, name FROM terms WHERE taxonomy = $1 ORDER BY name, slug`,
		string(tax),
	)
	if err != nil {
		return nil, fmt.Errorf("terms query: %w", err)
	}
	defer rows.Close()

	terms := make([]Term, 0)
	for rows.Next() {
		t := Term{Taxonomy: tax}
		if err := rows.Scan(&t.Slug, &t.Name); err != nil {
			return nil, fmt.Errorf("terms scan: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// Authors returns the users holding the author role.
func (s *PostgresStore) Authors(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, login, display_name, role FROM users
		 WHERE role = $1
		 ORDER BY display_name, id`,
		AuthorRole,
	)
	if err != nil {
		return nil, fmt.Errorf("authors query: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Login, &u.DisplayName, &u.Role); err != nil {
			return nil, fmt.Errorf("authors scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// User returns the user with the given id or ErrUserNotFound.
func (s *PostgresStore) User(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, login, display_name, role FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Login, &u.DisplayName, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user query: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			r                            Record
			regionSlugs, regionNames     []string
			categorySlugs, categoryNames []string
		)
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Title, &r.Slug, &r.AuthorID,
			&r.ReferenceNumber,
			&regionSlugs, &regionNames,
			&categorySlugs, &categoryNames,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Permalink = s.permalinks.For(r.Slug)
		r.Regions = zipTerms(TaxonomyRegion, regionSlugs, regionNames)
		r.Categories = zipTerms(TaxonomyCategory, categorySlugs, categoryNames)
		records = append(records, r)
	}
	return records, rows.Err()
}

func zipTerms(tax Taxonomy, slugs, names []string) []Term {
	if len(slugs) == 0 {
		return nil
	}
	terms := make([]Term, 0, len(slugs))
	for i, slug := range slugs {
		t := Term{Taxonomy: tax, Slug: slug}
		if i < len(names) {
			t.Name = names[i]
		}
		terms = append(terms, t)
	}
	return terms
}
