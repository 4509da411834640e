package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/jedib0t/go-pretty/v6/table"
)

func (a *app) jsonOutput() bool {
	return a.v.GetString("output") == "json"
}

func (a *app) printJSON(v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func (a *app) printTable(title string, header table.Row, rows []table.Row) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	t.AppendRows(rows)
	_, err := fmt.Fprintln(a.out, t.Render())
	return err
}

func decimalString(d apd.Decimal) string {
	return d.Text('f')
}

func timeString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinValues(values []string) string {
	return strings.Join(values, "|")
}
