package domain

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the layout of the dteday column and of date query parameters.
const DateLayout = "2006-01-02"

var (
	// FirstDate and LastDate bound the published data span.
	FirstDate = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	LastDate  = time.Date(2012, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// RawRecord is one source row, decoded by column name. Values are still in
// provider units and codes.
type RawRecord struct {
	Line int `mapstructure:"-"`

	Instant    int     `mapstructure:"instant"`
	Date       string  `mapstructure:"dteday"`
	Season     int     `mapstructure:"season"`
	Year       int     `mapstructure:"yr"`
	Month      int     `mapstructure:"mnth"`
	Hour       *int    `mapstructure:"hr"` // hourly rows only
	Holiday    int     `mapstructure:"holiday"`
	Weekday    int     `mapstructure:"weekday"`
	WorkingDay int     `mapstructure:"workingday"`
	Weather    int     `mapstructure:"weathersit"`
	Temp       float64 `mapstructure:"temp"`
	FeelsLike  float64 `mapstructure:"atemp"`
	Humidity   float64 `mapstructure:"hum"`
	WindSpeed  float64 `mapstructure:"windspeed"`
	Casual     int     `mapstructure:"casual"`
	Registered int     `mapstructure:"registered"`
	Count      int     `mapstructure:"cnt"`
}

var (
	dailyColumns = []string{
		"instant", "dteday", "season", "yr", "mnth", "holiday", "weekday", "workingday",
		"weathersit", "temp", "atemp", "hum", "windspeed", "casual", "registered", "cnt",
	}
	hourlyColumns = []string{
		"instant", "dteday", "season", "yr", "mnth", "hr", "holiday", "weekday", "workingday",
		"weathersit", "temp", "atemp", "hum", "windspeed", "casual", "registered", "cnt",
	}
)

// Columns returns the exact header expected for a granularity's source file.
func Columns(g Granularity) []string {
	switch g {
	case Daily:
		return slices.Clone(dailyColumns)
	case Hourly:
		return slices.Clone(hourlyColumns)
	default:
		return nil
	}
}

// Record is a cleaned row in physical units with labelled categories.
type Record struct {
	Date       time.Time `json:"date" yaml:"date"`
	Year       int       `json:"year" yaml:"year"`
	Month      int       `json:"month" yaml:"month"`
	Hour       *int      `json:"hour,omitempty" yaml:"hour,omitempty"`
	Season     string    `json:"season" yaml:"season"`
	Weekday    string    `json:"weekday" yaml:"weekday"`
	Weather    string    `json:"weather" yaml:"weather"`
	Holiday    bool      `json:"holiday" yaml:"holiday"`
	WorkingDay bool      `json:"working_day" yaml:"working_day"`

	TempC      float64 `json:"temp_c" yaml:"temp_c"`
	FeelsLikeC float64 `json:"feels_like_c" yaml:"feels_like_c"`
	Humidity   float64 `json:"humidity" yaml:"humidity"`
	WindSpeed  float64 `json:"wind_speed" yaml:"wind_speed"`

	Casual     int `json:"casual" yaml:"casual"`
	Registered int `json:"registered" yaml:"registered"`
	Total      int `json:"total" yaml:"total"`
}

// Dataset is an immutable, ordered sequence of records of one granularity.
// Filtering produces a new Dataset; the records of an existing one never change.
type Dataset struct {
	granularity Granularity
	records     []Record
}

// NewDataset copies records into a new Dataset.
func NewDataset(g Granularity, records []Record) *Dataset {
	return &Dataset{granularity: g, records: cloneRecords(records)}
}

func (d *Dataset) Granularity() Granularity { return d.granularity }

func (d *Dataset) Len() int { return len(d.records) }

// At returns a copy of the i-th record.
func (d *Dataset) At(i int) Record { return d.records[i].clone() }

// Records returns a copy of the records in source order.
func (d *Dataset) Records() []Record { return cloneRecords(d.records) }

// clone returns r with its own copy of the hour.
func (r Record) clone() Record {
	if r.Hour != nil {
		h := *r.Hour
		r.Hour = &h
	}
	return r
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

// Datasets holds both cleaned tables. It is built once per process and
// passed to every consumer.
type Datasets struct {
	Daily    *Dataset
	Hourly   *Dataset
	LoadedAt time.Time
}

// Get returns the dataset of a granularity.
func (s *Datasets) Get(g Granularity) (*Dataset, error) {
	switch g {
	case Daily:
		return s.Daily, nil
	case Hourly:
		return s.Hourly, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidGranularity, int(g))
	}
}
