package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
)

// DefaultTable is the table read from SQLite catalogs when none is configured.
const DefaultTable = "clusters"

func loadSQLite(ctx context.Context, src Source) ([]models.Cluster, error) {
	// sql.Open would silently create a missing database file.
	if _, err := os.Stat(src.Path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	table := src.Table
	if table == "" {
		table = DefaultTable
	}

	present, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}

	want := src.Columns.names()
	if err := missingColumns(want, func(name string) bool { return present[name] }); err != nil {
		return nil, err
	}

	quoted := make([]string, len(want))
	for i, name := range want {
		quoted[i] = quoteIdent(name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var clusters []models.Cluster
	row := 0
	for rows.Next() {
		row++
		var raw [4]sql.NullFloat64
		if err := rows.Scan(&raw[0], &raw[1], &raw[2], &raw[3]); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		var values [4]float64
		for i, v := range raw {
			if v.Valid {
				values[i] = v.Float64
			} else {
				values[i] = math.NaN()
			}
		}

		c, err := newCluster(row, values)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	return clusters, nil
}

// tableColumns returns the column names of table; empty if the table is absent.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
