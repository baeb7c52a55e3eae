package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/fleetline/backoffice/internal/rbac"
)

// FallbackReport summarises a fallback table file.
type FallbackReport struct {
	Entries     int
	Aliases     int
	Defaults    []string
	UnknownKeys []string
}

// Valid reports whether every key in the table is in the catalog.
func (r FallbackReport) Valid() bool {
	return len(r.UnknownKeys) == 0
}

// ValidateFallback parses a fallback table and checks its keys against
// catalog. An empty path checks the bundled table.
func ValidateFallback(path string, catalog *rbac.Catalog) (FallbackReport, error) {
	var (
		table *rbac.FallbackTable
		err   error
	)
	if path == "" {
		table, err = rbac.DefaultFallbackTable()
	} else {
		table, err = rbac.LoadFallbackTable(path)
	}
	if err != nil {
		return FallbackReport{}, err
	}
	report := FallbackReport{Defaults: table.Defaults(), UnknownKeys: table.UnknownKeys(catalog)}
	for _, entry := range table.Entries() {
		report.Entries++
		report.Aliases += len(entry.Aliases)
	}
	sort.Strings(report.UnknownKeys)
	return report, nil
}

// PrintFallbackReport writes a human readable summary.
func PrintFallbackReport(w io.Writer, report FallbackReport) {
	fmt.Fprintf(w, "entries: %d\naliases: %d\ndefault: %v\n", report.Entries, report.Aliases, report.Defaults)
	if report.Valid() {
		fmt.Fprintln(w, "status: ok")
		return
	}
	fmt.Fprintf(w, "status: invalid\nunknown keys: %v\n", report.UnknownKeys)
}
