package domain

import "math"

// Breakpoint maps a concentration band [CLow, CHigh] linearly onto an index
// band [ILow, IHigh]. Both ends are inclusive.
type Breakpoint struct {
	CLow, CHigh float64
	ILow, IHigh int
}

// CO breakpoints in ppm (8-hour averages).
var coBreakpoints = []Breakpoint{
	{CLow: 0.0, CHigh: 4.4, ILow: 0, IHigh: 50},
	{CLow: 4.5, CHigh: 9.4, ILow: 51, IHigh: 100},
	{CLow: 9.5, CHigh: 12.4, ILow: 101, IHigh: 150},
	{CLow: 12.5, CHigh: 15.4, ILow: 151, IHigh: 200},
	{CLow: 15.5, CHigh: 30.4, ILow: 201, IHigh: 300},
	{CLow: 30.5, CHigh: 40.4, ILow: 301, IHigh: 400},
	{CLow: 40.5, CHigh: 50.4, ILow: 401, IHigh: 500},
}

// NO2 breakpoints in ppb.
var no2Breakpoints = []Breakpoint{
	{CLow: 0, CHigh: 53, ILow: 0, IHigh: 50},
	{CLow: 54, CHigh: 100, ILow: 51, IHigh: 100},
	{CLow: 101, CHigh: 360, ILow: 101, IHigh: 150},
	{CLow: 361, CHigh: 649, ILow: 151, IHigh: 200},
	{CLow: 650, CHigh: 1249, ILow: 201, IHigh: 300},
	{CLow: 1250, CHigh: 1649, ILow: 301, IHigh: 400},
	{CLow: 1650, CHigh: 2049, ILow: 401, IHigh: 500},
}

// O3 breakpoints in ppb. The table stops at 300; higher concentrations have
// no defined sub-index.
var o3Breakpoints = []Breakpoint{
	{CLow: 0, CHigh: 54, ILow: 0, IHigh: 50},
	{CLow: 55, CHigh: 70, ILow: 51, IHigh: 100},
	{CLow: 71, CHigh: 85, ILow: 101, IHigh: 150},
	{CLow: 86, CHigh: 105, ILow: 151, IHigh: 200},
	{CLow: 106, CHigh: 200, ILow: 201, IHigh: 300},
}

// Unit conversion divisors from the raw sensor units.
const (
	coMgM3PerPPM  = 1.145
	no2UgM3PerPPB = 1.91
	o3UgM3PerPPB  = 2.0
)

// Index is an air quality index that may be undefined. The zero value is
// undefined.
type Index struct {
	value int
	valid bool
}

// DefinedIndex returns a defined index with value v.
func DefinedIndex(v int) Index { return Index{value: v, valid: true} }

// Get returns the index value and whether it is defined.
func (i Index) Get() (int, bool) { return i.value, i.valid }

// Valid reports whether the index is defined.
func (i Index) Valid() bool { return i.valid }

// Legacy returns the index with -1 standing in for undefined.
func (i Index) Legacy() int {
	if !i.valid {
		return -1
	}
	return i.value
}

// Float64Ptr returns the index as a nullable column value.
func (i Index) Float64Ptr() *float64 {
	if !i.valid {
		return nil
	}
	v := float64(i.value)
	return &v
}

// SubIndex interpolates a converted concentration over a breakpoint table.
func SubIndex(concentration float64, table []Breakpoint) Index {
	for _, bp := range table {
		if concentration < bp.CLow || concentration > bp.CHigh {
			continue
		}
		slope := float64(bp.IHigh-bp.ILow) / (bp.CHigh - bp.CLow)
		aqi := slope*(concentration-bp.CLow) + float64(bp.ILow)
		// Round half up.
		return DefinedIndex(int(math.Floor(aqi + 0.5)))
	}
	return Index{}
}

// COSubIndex converts mg/m3 to ppm and interpolates.
func COSubIndex(mgM3 float64) Index { return SubIndex(mgM3/coMgM3PerPPM, coBreakpoints) }

// NO2SubIndex converts ug/m3 to ppb and interpolates.
func NO2SubIndex(ugM3 float64) Index { return SubIndex(ugM3/no2UgM3PerPPB, no2Breakpoints) }

// O3SubIndex converts ug/m3 to ppb and interpolates.
func O3SubIndex(ugM3 float64) Index { return SubIndex(ugM3/o3UgM3PerPPB, o3Breakpoints) }

// CompositeIndex derives the overall index from raw CO (mg/m3), NO2 (ug/m3)
// and ozone-proxy (ug/m3) readings. Absent readings contribute nothing; the
// result is the maximum defined sub-index, or undefined if there is none.
func CompositeIndex(co, no2, o3 *float64) Index {
	var result Index
	consider := func(raw *float64, sub func(float64) Index) {
		if raw == nil {
			return
		}
		idx := sub(*raw)
		if v, ok := idx.Get(); ok && (!result.valid || v > result.value) {
			result = idx
		}
	}
	consider(co, COSubIndex)
	consider(no2, NO2SubIndex)
	consider(o3, O3SubIndex)
	return result
}
