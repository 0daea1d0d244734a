// Package domain models the Capital Bikeshare rental records published with
// the UCI "Bike Sharing Dataset" (Washington D.C., 2011-2012).
//
// # Data Source
//
// The provider ships two CSV files with a shared column layout:
//
//	day.csv   one row per calendar day (731 rows)
//	hour.csv  one row per hour of each day (17,379 rows; a few hours are missing)
//
// The hourly file carries an extra "hr" column after "mnth". Column names and
// order are a fixed contract, see [Columns].
//
// # Provider Conventions
//
// Continuous weather fields are min-max scaled into [0,1]. The provider
// documents the divisors, which are reversed by [Normalize]:
//
//	temp       temperature in Celsius / 41
//	atemp      feels-like temperature in Celsius / 50
//	hum        relative humidity / 100
//	windspeed  wind speed / 67
//
// Categorical fields are small integer codes:
//
//	season      1..4  Spring, Summer, Fall, Winter
//	weekday     0..6  Sun .. Sat
//	weathersit  1..4  Clear, Cloudy, then Light Rain/Heavy Rain on daily rows
//	                  and Light Snow/Heavy Snow on hourly rows
//	yr          0 = 2011, 1 = 2012
//	holiday, workingday  0/1 flags
//
// The weathersit labels differ by granularity. Both label sets are kept
// exactly as the dashboards have always shown them; confirm with the data
// owners before unifying them.
//
// Rider counts: cnt = casual + registered on every row.
package domain
