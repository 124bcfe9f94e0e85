package listview

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/localfirst/internal/domain/entity"
)

// Compute filters, sorts and paginates items. It does not modify items.
func Compute(items []entity.Entity, schema Schema, st State) Page {
	filtered := Filter(items, schema, st)
	Sort(filtered, schema, st.SortKey, st.Direction)

	size := st.PageSize
	if size <= 0 {
		size = schema.PageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(filtered)
	pages := max(1, (total+size-1)/size)
	page := min(max(st.Page, 0), pages-1)

	start := page * size
	end := min(start+size, total)

	return Page{
		Items:     filtered[start:end],
		Total:     total,
		Page:      page,
		PageCount: pages,
		PageSize:  size,
	}
}

// Filter returns the items matching the search term and category filter, in
// collection order.
func Filter(items []entity.Entity, schema Schema, st State) []entity.Entity {
	term := strings.ToLower(strings.TrimSpace(st.Search))
	category := st.Category
	if category == "" || schema.CategoryField == "" || (term != "" && schema.SearchBypassesCategory) {
		category = All
	}

	out := make([]entity.Entity, 0, len(items))
	for _, e := range items {
		if !matchesTerm(e, schema.SearchFields, term) {
			continue
		}
		if category != All && e.String(schema.CategoryField) != category {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesTerm reports whether the lowered term is a substring of any of the
// given fields. An empty term matches everything.
func matchesTerm(e entity.Entity, fields []string, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range fields {
		switch v := e.Get(field).(type) {
		case []any:
			for _, item := range v {
				if strings.Contains(strings.ToLower(fmt.Sprint(item)), term) {
					return true
				}
			}
		case []string:
			for _, item := range v {
				if strings.Contains(strings.ToLower(item), term) {
					return true
				}
			}
		default:
			if strings.Contains(strings.ToLower(e.String(field)), term) {
				return true
			}
		}
	}
	return false
}

// Sort orders items in place by the schema's sort key. Unknown keys leave the
// order untouched; ties keep collection order.
func Sort(items []entity.Entity, schema Schema, key string, dir Direction) {
	sk, ok := schema.SortKeys[key]
	if !ok {
		return
	}
	if dir == "" {
		dir = sk.Direction
	}
	if dir == "" {
		dir = Asc
	}

	compare := func(a, b entity.Entity) int {
		switch sk.Kind {
		case SortNumber:
			return cmp.Compare(number(a.Get(sk.Field)), number(b.Get(sk.Field)))
		case SortDate:
			return date(a.Get(sk.Field)).Compare(date(b.Get(sk.Field)))
		default:
			return strings.Compare(strings.ToLower(a.String(sk.Field)), strings.ToLower(b.String(sk.Field)))
		}
	}
	slices.SortStableFunc(items, func(a, b entity.Entity) int {
		if dir == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// Categories lists the distinct non-empty category values in first-seen order.
func Categories(items []entity.Entity, schema Schema) []string {
	if schema.CategoryField == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, e := range items {
		v := e.String(schema.CategoryField)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	default:
		return 0
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}

func date(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
