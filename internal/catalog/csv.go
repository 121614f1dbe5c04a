package catalog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/keagraha/Cluster-Research-Stuff/internal/models"
)

func loadCSV(ctx context.Context, src Source) ([]models.Cluster, error) {
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(ctx, file, src.Columns)
}

// readCSV parses a CSV stream with a header row.
func readCSV(ctx context.Context, r io.Reader, cols Columns) ([]models.Cluster, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", models.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	want := cols.names()
	if err := missingColumns(want, func(name string) bool {
		_, ok := index[name]
		return ok
	}); err != nil {
		return nil, err
	}

	var positions [4]int
	for i, name := range want {
		positions[i] = index[name]
	}

	var clusters []models.Cluster
	for line := 2; ; line++ {
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var values [4]float64
		for i, pos := range positions {
			v, err := parseField(rec[pos])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, want[i], err)
			}
			values[i] = v
		}

		c, err := newCluster(line-1, values)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}

	return clusters, nil
}

// parseField parses a numeric CSV field. Empty and "nan" fields read as NaN.
func parseField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
