package joblisting

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore is an in-process store with the same query semantics as
// PostgresStore. Records are of PostType unless added with AddForeign.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	foreign map[int64]bool
	terms   map[Taxonomy][]Term
	users   map[int64]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		foreign: make(map[int64]bool),
		terms:   make(map[Taxonomy][]Term),
		users:   make(map[int64]User),
	}
}

// AddRecord stores r and registers its terms.
func (m *MemoryStore) AddRecord(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	for _, t := range append(slices.Clone(r.Regions), r.Categories...) {
		m.addTermLocked(t)
	}
}

// AddForeign stores a record of another post type; it must never be returned.
func (m *MemoryStore) AddForeign(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	m.foreign[r.ID] = true
}

// AddTerm registers a term that may have no records attached.
func (m *MemoryStore) AddTerm(t Term) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addTermLocked(t)
}

func (m *MemoryStore) AddUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryStore) addTermLocked(t Term) {
	for _, have := range m.terms[t.Taxonomy] {
		if have.Slug == t.Slug {
			return
		}
	}
	m.terms[t.Taxonomy] = append(m.terms[t.Taxonomy], t)
}

func (m *MemoryStore) Find(ctx context.Context, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Record
	for _, r := range m.sorted() {
		if matches(r, q.Filter) {
			matched = append(matched, r)
		}
	}

	res := &Result{Records: []Record{}, Total: len(matched)}
	start := q.Offset()
	if start >= len(matched) {
		return res, nil
	}
	end := min(start+q.Limit, len(matched))
	res.Records = matched[start:end]
	return res, nil
}

func (m *MemoryStore) FindByIDs(ctx context.Context, ids []int64) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range m.sorted() {
		if slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) Terms(ctx context.Context, tax Taxonomy) ([]Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := slices.Clone(m.terms[tax])
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Name != terms[j].Name {
			return terms[i].Name < terms[j].Name
		}
		return terms[i].Slug < terms[j].Slug
	})
	return terms, nil
}

func (m *MemoryStore) Authors(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]User, 0)
	for _, u := range m.users {
		if u.Role == AuthorRole {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *MemoryStore) User(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// sorted returns the listing records newest first, excluding foreign types.
func (m *MemoryStore) sorted() []Record {
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if !m.foreign[r.ID] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func matches(r Record, f Filter) bool {
	if f.Region != "" && !hasSlug(r.Regions, f.Region) {
		return false
	}
	if f.Category != "" && !hasSlug(r.Categories, f.Category) {
		return false
	}
	if f.AuthorID != nil && r.AuthorID != *f.AuthorID {
		return false
	}
	return true
}

func hasSlug(terms []Term, slug string) bool {
	for _, t := range terms {
		if t.Slug == slug {
			return true
		}
	}
	return false
}
