package resource

import (
	"net/url"
	"slices"

	"github.com/rpggio/localfirst/internal/domain/listview"
)

// Definition describes one resource: where it lives locally and remotely, what
// a valid draft needs, and how its list screen behaves.
type Definition struct {
	Key      string
	Path     string
	Required []string
	Schema   listview.Schema
	// Query is sent with every list request as server-side filters.
	Query url.Values
}

// PendingDeletesKey is the storage key of tombstones for offline removals.
func (d Definition) PendingDeletesKey() string {
	return d.Key + ".pending-deletes"
}

func text(field string) listview.SortKey {
	return listview.SortKey{Field: field, Kind: listview.SortText, Direction: listview.Asc}
}

func number(field string) listview.SortKey {
	return listview.SortKey{Field: field, Kind: listview.SortNumber, Direction: listview.Desc}
}

func date(field string) listview.SortKey {
	return listview.SortKey{Field: field, Kind: listview.SortDate, Direction: listview.Desc}
}

var builtins = map[string]Definition{
	"projects": {
		Key:      "projects",
		Path:     "/api/projects",
		Required: []string{"name"},
		Schema: listview.Schema{
			SearchFields:  []string{"name", "description", "client", "tags"},
			CategoryField: "status",
			SortKeys: map[string]listview.SortKey{
				"name":     text("name"),
				"progress": number("progress"),
				"dueDate":  date("dueDate"),
				"created":  date("createdAt"),
			},
			DefaultSort: "created",
			PageSize:    9,
		},
	},
	"customers": {
		Key:      "customers",
		Path:     "/api/customers",
		Required: []string{"name", "email"},
		Schema: listview.Schema{
			SearchFields:           []string{"name", "email", "company", "phone", "tags"},
			CategoryField:          "status",
			SearchBypassesCategory: true,
			SortKeys: map[string]listview.SortKey{
				"name":      text("name"),
				"orders":    number("orders"),
				"spent":     number("spent"),
				"lastOrder": date("lastOrder"),
			},
			DefaultSort: "name",
			PageSize:    10,
		},
	},
	"suppliers": {
		Key:      "suppliers",
		Path:     "/api/suppliers",
		Required: []string{"name"},
		Schema: listview.Schema{
			SearchFields:  []string{"name", "contactName", "email", "category"},
			CategoryField: "category",
			SortKeys: map[string]listview.SortKey{
				"name":   text("name"),
				"orders": number("orders"),
				"rating": number("rating"),
			},
			DefaultSort: "name",
			PageSize:    10,
		},
	},
	"members": {
		Key:      "members",
		Path:     "/api/members",
		Required: []string{"name", "email"},
		Schema: listview.Schema{
			SearchFields:  []string{"name", "email", "role", "department"},
			CategoryField: "role",
			SortKeys: map[string]listview.SortKey{
				"name":   text("name"),
				"joined": date("joinedAt"),
			},
			DefaultSort: "name",
			PageSize:    12,
		},
	},
	"companies": {
		Key:      "companies",
		Path:     "/api/companies",
		Required: []string{"name"},
		Schema: listview.Schema{
			SearchFields:  []string{"name", "industry", "website"},
			CategoryField: "industry",
			SortKeys: map[string]listview.SortKey{
				"name":    text("name"),
				"created": date("createdAt"),
			},
			DefaultSort: "name",
			PageSize:    10,
		},
	},
	"inventory": {
		Key:      "inventory",
		Path:     "/api/inventory",
		Required: []string{"name", "sku"},
		Schema: listview.Schema{
			SearchFields:  []string{"name", "sku", "category", "supplier"},
			CategoryField: "category",
			SortKeys: map[string]listview.SortKey{
				"name":     text("name"),
				"quantity": number("quantity"),
				"price":    number("price"),
			},
			DefaultSort: "name",
			PageSize:    20,
		},
	},
	"expenses": {
		Key:      "expenses",
		Path:     "/api/expenses",
		Required: []string{"description", "amount"},
		Schema: listview.Schema{
			SearchFields:  []string{"description", "vendor", "category"},
			CategoryField: "category",
			SortKeys: map[string]listview.SortKey{
				"date":   date("date"),
				"amount": number("amount"),
				"vendor": text("vendor"),
			},
			DefaultSort: "date",
			PageSize:    20,
		},
	},
	"messages": {
		Key:      "messages",
		Path:     "/api/messages",
		Required: []string{"subject"},
		Schema: listview.Schema{
			SearchFields:           []string{"subject", "body", "sender"},
			CategoryField:          "folder",
			SearchBypassesCategory: true,
			SortKeys: map[string]listview.SortKey{
				"date":   date("sentAt"),
				"sender": text("sender"),
			},
			DefaultSort: "date",
			PageSize:    25,
		},
	},
}

// Lookup returns the built-in definition for name.
func Lookup(name string) (Definition, bool) {
	d, ok := builtins[name]
	return d, ok
}

// Names lists the built-in resources in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
