package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a zero-based page of an ordered result set. Sort names a
// whitelisted column key; unknown keys fall back to the query's default order.
type PageRequest struct {
	Page int
	Size int
	Sort string
	Desc bool
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	} else if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Page is a bounded slice of results plus the metadata needed to walk the whole set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// EmptyPage returns a page with no items for the given request.
func EmptyPage[T any](req PageRequest) Page[T] {
	req = req.normalized()
	return Page[T]{Items: []T{}, Page: req.Page, Size: req.Size}
}

// sortColumns maps public sort keys to column names.
type sortColumns map[string]string

func orderBy(col string, desc bool) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}
}

// pageQuery describes one paged listing: a filter scope applied to both the
// count and the fetch, associations preloaded on the fetch only, and fixed
// orders that take precedence over the requested sort.
type pageQuery struct {
	scope    func(*gorm.DB) *gorm.DB
	preloads []string
	fixed    []clause.OrderByColumn
}

// findPage counts and fetches one page of T. id is always the final tie-breaker.
func findPage[T any](ctx context.Context, conn *gorm.DB, req PageRequest, sorts sortColumns, q pageQuery) (Page[T], error) {
	req = req.normalized()
	if q.scope == nil {
		q.scope = func(tx *gorm.DB) *gorm.DB { return tx }
	}

	var total int64
	if err := conn.WithContext(ctx).Model(new(T)).Scopes(q.scope).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	orders := append([]clause.OrderByColumn{}, q.fixed...)
	if col, ok := sorts[req.Sort]; ok {
		orders = append(orders, orderBy(col, req.Desc))
	}
	orders = append(orders, orderBy("id", false))

	fetch := conn.WithContext(ctx).Model(new(T)).Scopes(q.scope)
	for _, p := range q.preloads {
		fetch = fetch.Preload(p)
	}

	items := []T{}
	if err := fetch.Clauses(clause.OrderBy{Columns: orders}).
		Offset(req.Page * req.Size).Limit(req.Size).
		Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	pages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size, TotalPages: pages}, nil
}
