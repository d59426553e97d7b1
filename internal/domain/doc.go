// Package domain models NOAA National Data Buoy Center (NDBC) wave observations
// and the surf alert rules evaluated against them.
//
// # Data Source
//
// Observations come from the NDBC realtime feed at
// https://www.ndbc.noaa.gov/data/realtime2/. Each station publishes several
// files; two of them are used here:
//
//	<station>.txt   standard meteorological data (WVHT, DPD, APD, MWD, WDIR, ...)
//	<station>.spec  spectral wave summary (WVHT, SwH, SwP, SwD, WWH, WWP, ...)
//
// A JSON rendition (<station>.json) keyed by the same measurement codes is also
// accepted, either as an array or as one object per line.
//
// # Text Format
//
// The text files are whitespace-delimited with one or two comment lines on top:
//
//	#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD
//	#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT
//	2024 01 15 12 00 180  5.0  6.0   1.5  13.5   8.0  90
//
// The first line naming year, month, day, hour and minute is the header. Month
// and minute are both "mm" once case is folded; the first is month, the second
// is minute. The units line that follows also names the date fields but never
// passes the numeric row test, so it is skipped. Realtime files are
// newest-first, other renditions are oldest-first; the parser picks the row
// with the latest timestamp either way.
//
// # Units
//
//	Heights (WVHT, SwH, WWH): meters, converted to feet (x 3.28084) and
//	  rounded to one decimal, half away from zero.
//	Periods (DPD, APD, SwP):  seconds.
//	Directions (MWD, WDIR):   degrees true. SwD in .spec files is compass text
//	  ("SSE"), converted to the center bearing of that compass point.
//
// # Missing Values
//
//	"MM" is the realtime sentinel for missing data. Historical files pad
//	missing columns with nines (99.00, 999, 9999); those are treated the same.
//	A missing value is absent (nil), never zero.
//
// # Alert Rules
//
// Three independent rules share the NE-through-SE direction window
// [25, 160] degrees true, inclusive:
//
//	Longboard:    period >= 13.0 s, height >= 0.7 ft
//	Shortboard:   period >= 13.0 s, height >= 1.6 ft
//	Short-Period: total wave height >= 3.0 ft
//
// Each rule resolves its inputs from an ordered alias list (swell values
// before general wave values, wind direction last). Unresolvable inputs make
// the rule a no-match rather than an error.
package domain
