package listview_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/listview"
	"github.com/stretchr/testify/require"
)

var customerSchema = listview.Schema{
	SearchFields:  []string{"name", "email", "tags"},
	CategoryField: "status",
	SortKeys: map[string]listview.SortKey{
		"name":      {Field: "name", Kind: listview.SortText, Direction: listview.Asc},
		"orders":    {Field: "orders", Kind: listview.SortNumber, Direction: listview.Desc},
		"lastOrder": {Field: "lastOrder", Kind: listview.SortDate, Direction: listview.Desc},
	},
	DefaultSort: "name",
	PageSize:    2,
}

func customer(id, name, status string, extra ...any) entity.Entity {
	fields := map[string]any{"id": id, "name": name, "status": status}
	for i := 0; i+1 < len(extra); i += 2 {
		fields[extra[i].(string)] = extra[i+1]
	}
	return entity.New(fields)
}

func ids(items []entity.Entity) []string {
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func TestCompute_SearchAndStatusFilter(t *testing.T) {
	items := []entity.Entity{
		customer("1", "A Corp", "active"),
		customer("2", "B Inc", "inactive"),
	}
	st := customerSchema.DefaultState().WithSearch("corp").WithCategory("active")

	page := listview.Compute(items, customerSchema, st)
	require.Equal(t, []string{"1"}, ids(page.Items))
	require.Equal(t, 1, page.Total)
}

func TestFilter_MatchesIffTermInSearchableField(t *testing.T) {
	items := []entity.Entity{
		customer("1", "Acme Corp", "active", "email", "ops@acme.io"),
		customer("2", "Blue Inc", "active", "tags", []any{"Wholesale", "vip"}),
		customer("3", "Cobalt", "inactive", "notes", "corp account"),
		customer("4", "", "active"),
	}
	terms := []string{"", "corp", "ACME", "vip", "sale", "zzz", "o", "  blue "}

	for _, term := range terms {
		got := map[string]bool{}
		for _, e := range listview.Filter(items, customerSchema, listview.State{Search: term, Category: listview.All}) {
			got[e.ID] = true
		}
		needle := strings.ToLower(strings.TrimSpace(term))
		for _, e := range items {
			want := needle == ""
			for _, f := range customerSchema.SearchFields {
				switch v := e.Get(f).(type) {
				case []any:
					for _, item := range v {
						want = want || strings.Contains(strings.ToLower(fmt.Sprint(item)), needle)
					}
				case string:
					want = want || strings.Contains(strings.ToLower(v), needle)
				}
			}
			require.Equal(t, want, got[e.ID], "term %q entity %s", term, e.ID)
		}
	}
}

func TestFilter_NotesAreNotSearchable(t *testing.T) {
	items := []entity.Entity{customer("3", "Cobalt", "inactive", "notes", "corp account")}
	require.Empty(t, listview.Filter(items, customerSchema, listview.State{Search: "corp"}))
}

func TestFilter_SearchBypassesCategory(t *testing.T) {
	schema := customerSchema
	schema.SearchBypassesCategory = true
	items := []entity.Entity{
		customer("1", "A Corp", "active"),
		customer("2", "B Corp", "inactive"),
	}

	withSearch := listview.Filter(items, schema, listview.State{Search: "corp", Category: "active"})
	require.Equal(t, []string{"1", "2"}, ids(withSearch))

	withoutSearch := listview.Filter(items, schema, listview.State{Category: "active"})
	require.Equal(t, []string{"1"}, ids(withoutSearch))
}

func TestCompute_PaginationBounds(t *testing.T) {
	for n := 0; n <= 7; n++ {
		for size := 1; size <= 4; size++ {
			items := make([]entity.Entity, 0, n)
			for i := range n {
				items = append(items, customer(fmt.Sprint(i), fmt.Sprintf("c%02d", i), "active"))
			}
			st := listview.State{Category: listview.All, PageSize: size}
			first := listview.Compute(items, customerSchema, st)

			wantPages := (n + size - 1) / size
			if n == 0 {
				wantPages = 1
			}
			require.Equal(t, wantPages, first.PageCount, "n=%d size=%d", n, size)

			seen := 0
			for p := -1; p <= wantPages; p++ {
				page := listview.Compute(items, customerSchema, st.WithPage(p))
				require.LessOrEqual(t, len(page.Items), size)
				require.GreaterOrEqual(t, page.Page, 0)
				require.Less(t, page.Page, wantPages)
				if p >= 0 && p < wantPages {
					seen += len(page.Items)
				}
			}
			require.Equal(t, n, seen)
		}
	}
}

func TestCompute_ClampsPage(t *testing.T) {
	items := []entity.Entity{customer("1", "a", "active"), customer("2", "b", "active"), customer("3", "c", "active")}
	page := listview.Compute(items, customerSchema, customerSchema.DefaultState().WithPage(9))
	require.Equal(t, 1, page.Page)
	require.Equal(t, []string{"3"}, ids(page.Items))
}

func TestCompute_DefaultPageSize(t *testing.T) {
	page := listview.Compute(nil, listview.Schema{}, listview.State{})
	require.Equal(t, listview.DefaultPageSize, page.PageSize)
	require.Equal(t, 1, page.PageCount)
	require.Empty(t, page.Items)
}

func TestSort_StableByKind(t *testing.T) {
	items := []entity.Entity{
		customer("1", "beta", "active", "orders", 5.0, "lastOrder", "2024-03-01"),
		customer("2", "Alpha", "active", "orders", 9.0, "lastOrder", "2024-05-01T10:00:00Z"),
		customer("3", "gamma", "active", "orders", 5.0, "lastOrder", "2023-12-31"),
		customer("4", "alpha", "active", "orders", "12", "lastOrder", "not a date"),
	}

	byName := append([]entity.Entity(nil), items...)
	listview.Sort(byName, customerSchema, "name", "")
	require.Equal(t, []string{"2", "4", "1", "3"}, ids(byName))

	byOrders := append([]entity.Entity(nil), items...)
	listview.Sort(byOrders, customerSchema, "orders", "")
	require.Equal(t, []string{"4", "2", "1", "3"}, ids(byOrders), "numeric sorts descend by default, ties keep order")

	byRecency := append([]entity.Entity(nil), items...)
	listview.Sort(byRecency, customerSchema, "lastOrder", "")
	require.Equal(t, []string{"2", "1", "3", "4"}, ids(byRecency))

	ascOrders := append([]entity.Entity(nil), items...)
	listview.Sort(ascOrders, customerSchema, "orders", listview.Asc)
	require.Equal(t, []string{"1", "3", "2", "4"}, ids(ascOrders))

	unknown := append([]entity.Entity(nil), items...)
	listview.Sort(unknown, customerSchema, "nope", listview.Desc)
	require.Equal(t, ids(items), ids(unknown))
}

func TestCompute_DoesNotReorderInput(t *testing.T) {
	items := []entity.Entity{customer("1", "b", "active"), customer("2", "a", "active")}
	listview.Compute(items, customerSchema, customerSchema.DefaultState())
	require.Equal(t, []string{"1", "2"}, ids(items))
}

func TestState_ChangesResetPage(t *testing.T) {
	st := customerSchema.DefaultState().WithPage(3)
	require.Zero(t, st.WithSearch("x").Page)
	require.Zero(t, st.WithCategory("active").Page)
	require.Zero(t, st.WithSort("orders", listview.Desc).Page)
	require.Equal(t, listview.All, st.WithCategory("").Category)

	custom := st.WithSearch("x").WithCategory("inactive")
	custom.PageSize = 50
	cleared := custom.Cleared(customerSchema)
	require.Equal(t, "", cleared.Search)
	require.Equal(t, listview.All, cleared.Category)
	require.Equal(t, "name", cleared.SortKey)
	require.Equal(t, listview.Asc, cleared.Direction)
	require.Equal(t, 50, cleared.PageSize)
}

func TestCategories(t *testing.T) {
	items := []entity.Entity{
		customer("1", "a", "active"),
		customer("2", "b", ""),
		customer("3", "c", "inactive"),
		customer("4", "d", "active"),
	}
	require.Equal(t, []string{"active", "inactive"}, listview.Categories(items, customerSchema))
	require.Nil(t, listview.Categories(items, listview.Schema{}))
}
