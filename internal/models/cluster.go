// Package models defines the core domain entities for the cluster catalog tools.
// These models represent individual cluster observations and the columnar catalog
// they are loaded into. Rows carry built-in validation so bad catalog data is
// rejected at load time rather than miscounted later.
//
// Terminology:
//   - Redshift: observational proxy for the cosmological distance of a cluster.
//   - Richness (lambda): galaxy membership count, a mass proxy.
//   - Ratio: core_temperature / r500_core_cropped_temperature, the cool-core classifier.
package models

import (
	"errors"
	"math"
)

// Default catalog column names, as written by the merged Y3 catalog.
const (
	ColumnRedshift        = "Redshift"
	ColumnRichness        = "lambda"
	ColumnCoreTemperature = "core_temperature"
	ColumnR500Temperature = "r500_core_cropped_temperature"
)

// RequiredColumns lists the columns every analysis needs, in a stable order.
var RequiredColumns = []string{
	ColumnRedshift,
	ColumnRichness,
	ColumnCoreTemperature,
	ColumnR500Temperature,
}

// Cluster represents a single cluster observation (one catalog row).
type Cluster struct {
	Redshift                   float64 `json:"redshift"`
	Richness                   float64 `json:"richness"`
	CoreTemperature            float64 `json:"core_temperature"`
	R500CoreCroppedTemperature float64 `json:"r500_core_cropped_temperature"`
}

// Validate checks that the redshift and richness fields are usable.
// Temperatures are not checked: a zero or missing r500 temperature is a
// ratio anomaly reported during partitioning, not a load failure.
func (c *Cluster) Validate() error {
	if math.IsNaN(c.Redshift) || math.IsInf(c.Redshift, 0) {
		return errors.New("redshift must be finite")
	}
	if c.Redshift < 0 {
		return errors.New("redshift must not be negative")
	}
	if math.IsNaN(c.Richness) || math.IsInf(c.Richness, 0) {
		return errors.New("richness must be finite")
	}
	if c.Richness < 0 {
		return errors.New("richness must not be negative")
	}
	return nil
}

// Ratio returns core_temperature / r500_core_cropped_temperature.
// The result is NaN or ±Inf when the denominator is zero or either value is missing.
func (c *Cluster) Ratio() float64 {
	return c.CoreTemperature / c.R500CoreCroppedTemperature
}
