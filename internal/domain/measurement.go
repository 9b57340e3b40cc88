package domain

import (
	"fmt"
	"time"
)

// Field names a persisted measurement column. The set of fields doubles as the
// allow-list for time-series queries.
type Field string

const (
	FieldCOGT            Field = "co_gt"
	FieldC6H6GT          Field = "c6h6_gt"
	FieldNMHCGT          Field = "nmhc_gt"
	FieldNOxGT           Field = "nox_gt"
	FieldNO2GT           Field = "no2_gt"
	FieldPT08S1CO        Field = "pt08s1_co"
	FieldPT08S2NMHC      Field = "pt08s2_nmhc"
	FieldPT08S3NOx       Field = "pt08s3_nox"
	FieldPT08S4NO2       Field = "pt08s4_no2"
	FieldPT08S5O3        Field = "pt08s5_o3"
	FieldTemperature     Field = "t"
	FieldRelHumidity     Field = "rh"
	FieldAbsHumidity     Field = "ah"
	FieldAirQualityIndex Field = "air_quality_index"
)

// Fields lists every queryable column in storage order.
var Fields = []Field{
	FieldCOGT,
	FieldC6H6GT,
	FieldNMHCGT,
	FieldNOxGT,
	FieldNO2GT,
	FieldPT08S1CO,
	FieldPT08S2NMHC,
	FieldPT08S3NOx,
	FieldPT08S4NO2,
	FieldPT08S5O3,
	FieldTemperature,
	FieldRelHumidity,
	FieldAbsHumidity,
	FieldAirQualityIndex,
}

// SourceColumns maps the header names of an AirQualityUCI file to the fields
// they populate. The air quality index is derived, never read.
var SourceColumns = map[string]Field{
	"CO(GT)":        FieldCOGT,
	"PT08.S1(CO)":   FieldPT08S1CO,
	"NMHC(GT)":      FieldNMHCGT,
	"C6H6(GT)":      FieldC6H6GT,
	"PT08.S2(NMHC)": FieldPT08S2NMHC,
	"NOx(GT)":       FieldNOxGT,
	"PT08.S3(NOx)":  FieldPT08S3NOx,
	"NO2(GT)":       FieldNO2GT,
	"PT08.S4(NO2)":  FieldPT08S4NO2,
	"PT08.S5(O3)":   FieldPT08S5O3,
	"T":             FieldTemperature,
	"RH":            FieldRelHumidity,
	"AH":            FieldAbsHumidity,
}

// Header names of the timestamp columns.
const (
	DateColumn = "Date"
	TimeColumn = "Time"
)

// ParseField validates a requested column name against the allow-list.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidParameter, name)
}

// Measurement is one normalized sensor reading. Every value except the
// timestamp is nullable.
type Measurement struct {
	Timestamp       time.Time `json:"timestamp"`
	COGT            *float64  `json:"co_gt"`
	PT08S1CO        *float64  `json:"pt08s1_co"`
	NMHCGT          *float64  `json:"nmhc_gt"`
	C6H6GT          *float64  `json:"c6h6_gt"`
	PT08S2NMHC      *float64  `json:"pt08s2_nmhc"`
	NOxGT           *float64  `json:"nox_gt"`
	PT08S3NOx       *float64  `json:"pt08s3_nox"`
	NO2GT           *float64  `json:"no2_gt"`
	PT08S4NO2       *float64  `json:"pt08s4_no2"`
	PT08S5O3        *float64  `json:"pt08s5_o3"`
	T               *float64  `json:"t"`
	RH              *float64  `json:"rh"`
	AH              *float64  `json:"ah"`
	AirQualityIndex *float64  `json:"air_quality_index"`
}

// FieldPtr returns the address of the slot holding f, for scanning and
// population by column name. It returns nil for unknown fields.
func (m *Measurement) FieldPtr(f Field) **float64 {
	switch f {
	case FieldCOGT:
		return &m.COGT
	case FieldPT08S1CO:
		return &m.PT08S1CO
	case FieldNMHCGT:
		return &m.NMHCGT
	case FieldC6H6GT:
		return &m.C6H6GT
	case FieldPT08S2NMHC:
		return &m.PT08S2NMHC
	case FieldNOxGT:
		return &m.NOxGT
	case FieldPT08S3NOx:
		return &m.PT08S3NOx
	case FieldNO2GT:
		return &m.NO2GT
	case FieldPT08S4NO2:
		return &m.PT08S4NO2
	case FieldPT08S5O3:
		return &m.PT08S5O3
	case FieldTemperature:
		return &m.T
	case FieldRelHumidity:
		return &m.RH
	case FieldAbsHumidity:
		return &m.AH
	case FieldAirQualityIndex:
		return &m.AirQualityIndex
	default:
		return nil
	}
}

// Value returns the value of f, or nil when absent or unknown.
func (m Measurement) Value(f Field) *float64 {
	p := m.FieldPtr(f)
	if p == nil {
		return nil
	}
	return *p
}

// SeriesPoint is one element of a single-parameter time series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// RangeQuery is the storage-facing read request: the columns to project, an
// optional inclusive time window, and an optional offset/limit window.
// Results are always ordered by timestamp ascending.
type RangeQuery struct {
	Fields []Field
	Start  *time.Time
	End    *time.Time
	Offset int
	Limit  int // 0 means unbounded
}
