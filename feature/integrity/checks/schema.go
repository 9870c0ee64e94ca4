package checks

import (
	"fmt"
	"sort"

	"feedsync/core/database"

	"gorm.io/gorm"
)

// SchemaReport is the result of a local store schema check.
type SchemaReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

// TableReport lists the problems of one table.
type TableReport struct {
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema compares the database against the expected tables and columns.
func CheckSchema(db *gorm.DB, expected map[string][]string) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Driver:  db.Dialector.Name(),
		Matched: true,
		Tables:  make(map[string]TableReport, len(expected)),
		Errors:  []string{},
	}

	tables := make([]string, 0, len(expected))
	for name := range expected {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, table := range tables {
		tbl := TableReport{MissingColumns: []string{}, Status: "ok"}

		cols, err := database.GetTableColumns(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			tbl.Status = "error"
			report.Tables[table] = tbl
			continue
		}

		actual := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			actual[c.Field] = struct{}{}
		}
		tbl.Exists = len(actual) > 0

		for _, col := range expected[table] {
			if _, ok := actual[col]; !ok {
				tbl.MissingColumns = append(tbl.MissingColumns, col)
			}
		}
		if !tbl.Exists || len(tbl.MissingColumns) > 0 {
			tbl.Status = "error"
			report.Matched = false
		}
		report.Tables[table] = tbl
	}

	return report, nil
}
