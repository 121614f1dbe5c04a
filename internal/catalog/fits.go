package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/astrogo/fitsio"

	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
)

func loadFITS(ctx context.Context, src Source) ([]models.Cluster, error) {
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := fitsio.Open(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to open FITS file: %w", err)
	}
	defer f.Close()

	table, err := selectTable(f.HDUs(), src.HDU)
	if err != nil {
		return nil, err
	}

	want := src.Columns.names()
	if err := missingColumns(want, func(name string) bool { return table.Index(name) >= 0 }); err != nil {
		return nil, err
	}

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return nil, fmt.Errorf("failed to read table rows: %w", err)
	}
	defer rows.Close()

	clusters := make([]models.Cluster, 0, table.NumRows())
	row := 0
	for rows.Next() {
		row++
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		// A prefilled map limits decoding to the named columns, so vector
		// columns elsewhere in the table are never read.
		data := make(map[string]interface{}, len(want))
		for _, name := range want {
			data[name] = nil
		}
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		var values [4]float64
		for i, name := range want {
			v, err := toFloat(data[name])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", row, name, err)
			}
			values[i] = v
		}

		c, err := newCluster(row, values)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table rows: %w", err)
	}

	return clusters, nil
}

// selectTable picks the table HDU at index hdu, or the first table when hdu is 0.
func selectTable(hdus []fitsio.HDU, hdu int) (*fitsio.Table, error) {
	if hdu > 0 {
		if hdu >= len(hdus) {
			return nil, fmt.Errorf("HDU %d out of range (file has %d)", hdu, len(hdus))
		}
		table, ok := hdus[hdu].(*fitsio.Table)
		if !ok {
			return nil, fmt.Errorf("HDU %d is not a table", hdu)
		}
		return table, nil
	}

	for _, h := range hdus {
		if table, ok := h.(*fitsio.Table); ok {
			return table, nil
		}
	}
	return nil, errors.New("no table HDU found")
}

// toFloat converts a scalar cell value, or a pointer to one, to float64.
// A nil cell reads as NaN.
func toFloat(v interface{}) (float64, error) {
	if v == nil {
		return math.NaN(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return math.NaN(), nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("unsupported column type %T", v)
	}
}
