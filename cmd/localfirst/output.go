package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rpggio/localfirst/internal/domain/activity"
	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/page"
)

// parseFields reads field=value pairs. Values that parse as JSON keep their
// type, everything else is a string.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		fields[key] = v
	}
	return fields, nil
}

func printToasts(ctrl *page.Controller) {
	for _, n := range ctrl.Toasts() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Message)
	}
}

func syncState(e entity.Entity) string {
	switch {
	case e.IsLocal:
		return "local"
	case !e.IsSynced:
		return "pending"
	default:
		return "synced"
	}
}

func printView(w io.Writer, def resource.Definition, v page.View) {
	if v.UpgradeRequired {
		fmt.Fprintln(w, "Upgrade required to view this list.")
		return
	}
	columns := append([]string{"id", "state"}, def.Schema.SearchFields...)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
	for _, e := range v.Page.Items {
		row := []string{e.ID, syncState(e)}
		for _, field := range def.Schema.SearchFields {
			row = append(row, e.String(field))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "page %d/%d, %d records (%s)\n", v.Page.Page+1, v.Page.PageCount, v.Page.Total, v.Source)
	if len(v.Categories) > 0 {
		fmt.Fprintf(w, "%s: %s\n", def.Schema.CategoryField, strings.Join(v.Categories, ", "))
	}
}

func printActivity(w io.Writer, entries []activity.ActivityEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tRESOURCE\tTYPE\tENTITY\tSUMMARY")
	for _, e := range entries {
		entityID := ""
		if e.EntityID != nil {
			entityID = *e.EntityID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Level, e.Resource, e.ActivityType, entityID, e.Summary)
	}
	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
