// Package aqi converts pollutant concentrations to the 0-500 air quality
// index using piecewise-linear EPA breakpoint tables.
package aqi

import "math"

// Breakpoint maps the concentration range [Low, High] onto [IndexLow, IndexHigh].
type Breakpoint struct {
	Low       float64
	High      float64
	IndexLow  int
	IndexHigh int
}

// Table is an ordered set of breakpoints for a single pollutant.
type Table []Breakpoint

// PM25 is the EPA table for fine particulate matter (µg/m³, 24h).
var PM25 = Table{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// PM10 is the EPA table for coarse particulate matter (µg/m³, 24h).
var PM10 = Table{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 504, 301, 400},
	{505, 604, 401, 500},
}

// IndexFor returns the index for concentration c, or false when c lies
// outside every breakpoint of t.
func IndexFor(c float64, t Table) (int, bool) {
	if math.IsNaN(c) {
		return 0, false
	}
	for _, bp := range t {
		if bp.Low <= c && c <= bp.High {
			return bp.interpolate(c), true
		}
	}
	return 0, false
}

// OptionalIndex is IndexFor for a possibly absent concentration.
func OptionalIndex(c *float64, t Table) (int, bool) {
	if c == nil {
		return 0, false
	}
	return IndexFor(*c, t)
}

// Overall combines the PM2.5 and PM10 sub-indices by taking the highest
// present one.
func Overall(pm25, pm10 *float64) (int, bool) {
	best, found := 0, false
	for _, sub := range []struct {
		c *float64
		t Table
	}{{pm25, PM25}, {pm10, PM10}} {
		idx, ok := OptionalIndex(sub.c, sub.t)
		if !ok {
			continue
		}
		if !found || idx > best {
			best, found = idx, true
		}
	}
	return best, found
}

func (bp Breakpoint) interpolate(c float64) int {
	if bp.High == bp.Low {
		return bp.IndexLow
	}
	slope := float64(bp.IndexHigh-bp.IndexLow) / (bp.High - bp.Low)
	return int(math.Floor(slope*(c-bp.Low) + float64(bp.IndexLow) + 0.5))
}
