package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMissingColumn is returned when a catalog lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Catalog is an ordered, column-oriented table of cluster observations.
// Once loaded it is treated as read-only and may be shared between goroutines.
type Catalog struct {
	columns map[string][]float64
	rows    int
}

// NewCatalog creates an empty catalog with no columns.
func NewCatalog() *Catalog {
	return &Catalog{columns: make(map[string][]float64)}
}

// NewCatalogFromClusters builds a catalog with the default column names from rows.
func NewCatalogFromClusters(clusters []Cluster) *Catalog {
	cols := map[string][]float64{
		ColumnRedshift:        make([]float64, len(clusters)),
		ColumnRichness:        make([]float64, len(clusters)),
		ColumnCoreTemperature: make([]float64, len(clusters)),
		ColumnR500Temperature: make([]float64, len(clusters)),
	}
	for i, c := range clusters {
		cols[ColumnRedshift][i] = c.Redshift
		cols[ColumnRichness][i] = c.Richness
		cols[ColumnCoreTemperature][i] = c.CoreTemperature
		cols[ColumnR500Temperature][i] = c.R500CoreCroppedTemperature
	}
	return &Catalog{columns: cols, rows: len(clusters)}
}

// AddColumn attaches a named column. All columns must have the same length.
func (c *Catalog) AddColumn(name string, values []float64) error {
	if name == "" {
		return errors.New("column name must not be empty")
	}
	if _, exists := c.columns[name]; exists {
		return fmt.Errorf("duplicate column: %s", name)
	}
	if len(c.columns) > 0 && len(values) != c.rows {
		return fmt.Errorf("column %s has %d rows, catalog has %d", name, len(values), c.rows)
	}
	c.columns[name] = values
	c.rows = len(values)
	return nil
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return c.rows
}

// Column returns the values of a named column. The returned slice must not be modified.
func (c *Catalog) Column(name string) ([]float64, error) {
	values, exists := c.columns[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return values, nil
}

// HasColumn reports whether the catalog has a column with the given name.
func (c *Catalog) HasColumn(name string) bool {
	_, exists := c.columns[name]
	return exists
}

// ColumnNames returns the column names in sorted order.
func (c *Catalog) ColumnNames() []string {
	names := make([]string, 0, len(c.columns))
	for name := range c.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Row returns row i as a Cluster using the default column names.
// Missing columns read as NaN.
func (c *Catalog) Row(i int) Cluster {
	get := func(name string) float64 {
		values, exists := c.columns[name]
		if !exists || i < 0 || i >= len(values) {
			return math.NaN()
		}
		return values[i]
	}
	return Cluster{
		Redshift:                   get(ColumnRedshift),
		Richness:                   get(ColumnRichness),
		CoreTemperature:            get(ColumnCoreTemperature),
		R500CoreCroppedTemperature: get(ColumnR500Temperature),
	}
}
