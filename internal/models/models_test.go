package models

import (
	"errors"
	"math"
	"testing"
)

func TestClusterValidate(t *testing.T) {
	tests := []struct {
		name    string
		cluster Cluster
		wantErr bool
	}{
		{
			name: "valid cluster",
			cluster: Cluster{
				Redshift:                   0.31,
				Richness:                   104.2,
				CoreTemperature:            4.1,
				R500CoreCroppedTemperature: 5.6,
			},
			wantErr: false,
		},
		{
			name:    "zero redshift and richness",
			cluster: Cluster{CoreTemperature: 1, R500CoreCroppedTemperature: 1},
			wantErr: false,
		},
		{
			name: "zero denominator is not a load error",
			cluster: Cluster{
				Redshift:        0.2,
				Richness:        50,
				CoreTemperature: 3.0,
			},
			wantErr: false,
		},
		{
			name:    "negative redshift",
			cluster: Cluster{Redshift: -0.1, Richness: 20},
			wantErr: true,
		},
		{
			name:    "negative richness",
			cluster: Cluster{Redshift: 0.1, Richness: -3},
			wantErr: true,
		},
		{
			name:    "NaN redshift",
			cluster: Cluster{Redshift: math.NaN(), Richness: 20},
			wantErr: true,
		},
		{
			name:    "infinite richness",
			cluster: Cluster{Redshift: 0.4, Richness: math.Inf(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cluster.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Cluster.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClusterRatio(t *testing.T) {
	c := Cluster{CoreTemperature: 3.5, R500CoreCroppedTemperature: 5}
	if got := c.Ratio(); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("Expected ratio 0.7, got %f", got)
	}

	zero := Cluster{CoreTemperature: 3.5}
	if got := zero.Ratio(); !math.IsInf(got, 1) {
		t.Errorf("Expected +Inf for zero denominator, got %f", got)
	}

	empty := Cluster{}
	if got := empty.Ratio(); !math.IsNaN(got) {
		t.Errorf("Expected NaN for 0/0, got %f", got)
	}
}

func TestCatalog_AddColumn(t *testing.T) {
	c := NewCatalog()
	if err := c.AddColumn(ColumnRedshift, []float64{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", c.Len())
	}

	if err := c.AddColumn(ColumnRichness, []float64{10, 20}); err == nil {
		t.Error("Expected error for mismatched column length")
	}
	if err := c.AddColumn(ColumnRedshift, []float64{1, 2, 3}); err == nil {
		t.Error("Expected error for duplicate column")
	}
	if err := c.AddColumn("", []float64{1, 2, 3}); err == nil {
		t.Error("Expected error for empty column name")
	}
}

func TestCatalog_MissingColumn(t *testing.T) {
	c := NewCatalog()
	if err := c.AddColumn(ColumnRedshift, []float64{0.1}); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	_, err := c.Column(ColumnRichness)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}
	if c.HasColumn(ColumnRichness) {
		t.Error("HasColumn reported a column that was never added")
	}

	row := c.Row(0)
	if row.Redshift != 0.1 {
		t.Errorf("Expected redshift 0.1, got %f", row.Redshift)
	}
	if !math.IsNaN(row.Richness) {
		t.Errorf("Expected NaN richness for missing column, got %f", row.Richness)
	}
}

func TestNewCatalogFromClusters(t *testing.T) {
	clusters := []Cluster{
		{Redshift: 0.1, Richness: 80, CoreTemperature: 2, R500CoreCroppedTemperature: 4},
		{Redshift: 0.5, Richness: 120, CoreTemperature: 6, R500CoreCroppedTemperature: 5},
	}
	c := NewCatalogFromClusters(clusters)

	if c.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", c.Len())
	}
	for _, name := range RequiredColumns {
		if !c.HasColumn(name) {
			t.Errorf("Missing required column %s", name)
		}
	}
	if got := c.Row(1); got != clusters[1] {
		t.Errorf("Row(1) = %+v, want %+v", got, clusters[1])
	}
}

func TestNewCatalogFromClusters_Empty(t *testing.T) {
	c := NewCatalogFromClusters(nil)
	if c.Len() != 0 {
		t.Errorf("Expected 0 rows, got %d", c.Len())
	}
	if len(c.ColumnNames()) != len(RequiredColumns) {
		t.Errorf("Expected %d columns, got %v", len(RequiredColumns), c.ColumnNames())
	}
}
