// Package catalog loads cluster catalogs from CSV files, FITS binary tables and
// SQLite databases into a models.Catalog.
//
// Only the four columns the analysis needs are read; any other columns,
// including multidimensional FITS columns, are ignored. Each row is validated
// and the first invalid row fails the load.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
)

// Supported catalog formats.
const (
	FormatCSV    = "csv"
	FormatFITS   = "fits"
	FormatSQLite = "sqlite"
)

// Columns names the catalog columns holding each required field.
type Columns struct {
	Redshift        string
	Richness        string
	CoreTemperature string
	R500Temperature string
}

// DefaultColumns returns the column names of the merged Y3 catalog.
func DefaultColumns() Columns {
	return Columns{
		Redshift:        models.ColumnRedshift,
		Richness:        models.ColumnRichness,
		CoreTemperature: models.ColumnCoreTemperature,
		R500Temperature: models.ColumnR500Temperature,
	}
}

// names returns the source column names in models.RequiredColumns order.
func (c Columns) names() []string {
	return []string{c.Redshift, c.Richness, c.CoreTemperature, c.R500Temperature}
}

// Source describes a catalog to load.
type Source struct {
	Path    string
	Format  string // empty = detect from extension
	Table   string // sqlite table name
	HDU     int    // fits HDU index; 0 = first table HDU
	Columns Columns
}

// Load reads the catalog described by src.
func Load(ctx context.Context, src Source) (*models.Catalog, error) {
	if src.Path == "" {
		return nil, errors.New("catalog path must not be empty")
	}
	if src.Columns == (Columns{}) {
		src.Columns = DefaultColumns()
	}

	format := strings.ToLower(src.Format)
	if format == "" {
		detected, err := DetectFormat(src.Path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	var (
		rows []models.Cluster
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = loadCSV(ctx, src)
	case FormatFITS:
		rows, err = loadFITS(ctx, src)
	case FormatSQLite:
		rows, err = loadSQLite(ctx, src)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", src.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s catalog %s: %w", format, src.Path, err)
	}

	return models.NewCatalogFromClusters(rows), nil
}

// DetectFormat infers the catalog format from the file extension.
func DetectFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".fits", ".fit", ".fts":
		return FormatFITS, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("cannot detect catalog format from extension %q", ext)
	}
}

// newCluster builds and validates one row. values are in Columns order.
func newCluster(row int, values [4]float64) (models.Cluster, error) {
	c := models.Cluster{
		Redshift:                   values[0],
		Richness:                   values[1],
		CoreTemperature:            values[2],
		R500CoreCroppedTemperature: values[3],
	}
	if err := c.Validate(); err != nil {
		return models.Cluster{}, fmt.Errorf("row %d: %w", row, err)
	}
	return c, nil
}

// missingColumns returns an ErrMissingColumn error naming the wanted columns
// for which have reports false, or nil.
func missingColumns(want []string, have func(string) bool) error {
	var missing []string
	for _, name := range want {
		if !have(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
}

// checkEvery is how many rows are read between context checks.
const checkEvery = 1024
