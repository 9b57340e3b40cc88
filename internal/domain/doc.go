// Package domain models air-quality sensor readings in the UCI "AirQualityUCI"
// layout and the ingestion job state that tracks their bulk import.
//
// # Data Source
//
// Readings arrive as delimited text files (semicolon-separated by default)
// with one header row. Each row is an hourly average from a multisensor
// device co-located with a reference analyser:
//
//	Date;Time;CO(GT);PT08.S1(CO);NMHC(GT);C6H6(GT);PT08.S2(NMHC);NOx(GT);...
//	10/03/2004;18.00.00;2,6;1360;150;11,9;1046;166;...
//
// # Conventions
//
// Date format:
//
//	DD/MM/YYYY, e.g. "10/03/2004" = 10 March 2004.
//
// Time format:
//
//	HH.MM.SS with dots instead of colons, e.g. "18.00.00" = 18:00:00.
//	Date and time are combined into a single timestamp in the configured
//	ingestion time zone (UTC by default).
//
// Numeric values:
//
//	Decimal commas are accepted ("2,6" = 2.6). Empty or unparseable values
//	become null rather than zero, so absence is never confused with a reading.
//
// # Air Quality Index
//
// The composite index is the maximum of three sub-indices (CO, NO2, O3) each
// derived by linear interpolation over a fixed breakpoint table. Raw units
// are converted first:
//
//	CO   mg/m3 -> ppm  (/ 1.145)
//	NO2  ug/m3 -> ppb  (/ 1.91)
//	O3   ug/m3 -> ppb  (/ 2)
//
// A concentration outside every band of its table yields an undefined
// sub-index. When all three are undefined the composite is undefined and is
// persisted as NULL. See [CompositeIndex].
package domain
