package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/listview"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/page"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"name=Acme Corp", "orders=3", "vip=true", `tags=["a","b"]`, "note="})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", fields["name"])
	require.Equal(t, float64(3), fields["orders"])
	require.Equal(t, true, fields["vip"])
	require.Equal(t, []any{"a", "b"}, fields["tags"])
	require.Equal(t, "", fields["note"])

	_, err = parseFields([]string{"novalue"})
	require.Error(t, err)
}

func TestPrintView(t *testing.T) {
	def, _ := resource.Lookup("companies")
	items := []entity.Entity{
		{ID: "c1", IsSynced: true, Fields: map[string]any{"name": "Acme", "industry": "retail"}},
		{ID: "local-1", IsLocal: true, Fields: map[string]any{"name": "Globex", "industry": "energy"}},
	}
	var buf bytes.Buffer
	printView(&buf, def, page.View{
		Page:       listview.Compute(items, def.Schema, def.Schema.DefaultState()),
		Categories: listview.Categories(items, def.Schema),
		Source:     resource.SourceCache,
	})

	out := buf.String()
	require.Contains(t, out, "ID")
	require.Contains(t, out, "synced")
	require.Contains(t, out, "local")
	require.Contains(t, out, "page 1/1, 2 records (cache)")
	require.Contains(t, out, "industry: retail, energy")
}

func TestLogFileWriterKeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()

	line := strings.Repeat("x", 1023) + "\n"
	for range (maxLogSizeBytes / len(line)) + 8 {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.LessOrEqual(t, info.Size(), int64(maxLogSizeBytes))
}
