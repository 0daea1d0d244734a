package domain

import (
	"fmt"
	"math"
	"time"
)

// Provider scale divisors for the min-max normalized weather fields. These
// are documented facts of the source dataset, not values derived from the
// data; a different source needs its own constants.
const (
	TempScale      = 41.0
	FeelsLikeScale = 50.0
	HumidityScale  = 100.0
	WindSpeedScale = 67.0
)

// Normalize converts a raw row into a Record: it parses the date, reverses the
// provider normalization, labels the category codes for the granularity, and
// checks the row invariants. The row id is dropped.
func Normalize(g Granularity, raw RawRecord) (Record, error) {
	if !g.Valid() {
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidGranularity, int(g))
	}

	date, err := parseDate(raw.Date)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Date:       date,
		Year:       2011 + raw.Year,
		Month:      raw.Month,
		Casual:     raw.Casual,
		Registered: raw.Registered,
		Total:      raw.Count,
	}

	if err := checkRowFields(g, raw); err != nil {
		return Record{}, err
	}
	if g == Hourly {
		hour := *raw.Hour
		rec.Hour = &hour
	}
	rec.Holiday = raw.Holiday == 1
	rec.WorkingDay = raw.WorkingDay == 1

	if rec.TempC, err = denormalize("temp", raw.Temp, TempScale); err != nil {
		return Record{}, err
	}
	if rec.FeelsLikeC, err = denormalize("atemp", raw.FeelsLike, FeelsLikeScale); err != nil {
		return Record{}, err
	}
	if rec.Humidity, err = denormalize("hum", raw.Humidity, HumidityScale); err != nil {
		return Record{}, err
	}
	if rec.WindSpeed, err = denormalize("windspeed", raw.WindSpeed, WindSpeedScale); err != nil {
		return Record{}, err
	}

	if rec.Season, err = Label(g, Season, raw.Season); err != nil {
		return Record{}, err
	}
	if rec.Weekday, err = Label(g, Weekday, raw.Weekday); err != nil {
		return Record{}, err
	}
	if rec.Weather, err = Label(g, Weather, raw.Weather); err != nil {
		return Record{}, err
	}

	if err := checkCounts(raw); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// parseDate parses a dteday value into a UTC calendar date.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Field: "dteday", Value: s, Err: err}
	}
	return t, nil
}

// denormalize multiplies a [0,1] value back into physical units. NaN is
// rejected along with out-of-range values.
func denormalize(field string, v, scale float64) (float64, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: %s=%g outside [0,1]", ErrMalformedRow, field, v)
	}
	return v * scale, nil
}

func checkRowFields(g Granularity, raw RawRecord) error {
	if raw.Year != 0 && raw.Year != 1 {
		return fmt.Errorf("%w: yr=%d", ErrMalformedRow, raw.Year)
	}
	if raw.Month < 1 || raw.Month > 12 {
		return fmt.Errorf("%w: mnth=%d", ErrMalformedRow, raw.Month)
	}
	if raw.Holiday != 0 && raw.Holiday != 1 {
		return fmt.Errorf("%w: holiday=%d", ErrMalformedRow, raw.Holiday)
	}
	if raw.WorkingDay != 0 && raw.WorkingDay != 1 {
		return fmt.Errorf("%w: workingday=%d", ErrMalformedRow, raw.WorkingDay)
	}
	if g == Hourly {
		if raw.Hour == nil {
			return fmt.Errorf("%w: missing hr", ErrMalformedRow)
		}
		if *raw.Hour < 0 || *raw.Hour > 23 {
			return fmt.Errorf("%w: hr=%d", ErrMalformedRow, *raw.Hour)
		}
	}
	return nil
}

// checkCounts enforces non-negative rider counts and cnt = casual + registered.
func checkCounts(raw RawRecord) error {
	if raw.Casual < 0 || raw.Registered < 0 {
		return fmt.Errorf("%w: negative rider count casual=%d registered=%d", ErrMalformedRow, raw.Casual, raw.Registered)
	}
	if raw.Count != raw.Casual+raw.Registered {
		return fmt.Errorf("%w: cnt=%d != casual+registered=%d", ErrMalformedRow, raw.Count, raw.Casual+raw.Registered)
	}
	return nil
}
