package analysis

import (
	"strconv"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// Bucket is one labelled total of an aggregate table.
type Bucket struct {
	Label string `json:"label" yaml:"label"`
	Total int    `json:"total" yaml:"total"`
}

// RiderBucket holds the casual and registered totals of one label, for
// side-by-side comparison.
type RiderBucket struct {
	Label      string `json:"label" yaml:"label"`
	Casual     int    `json:"casual" yaml:"casual"`
	Registered int    `json:"registered" yaml:"registered"`
}

// Point is one (feels-like temperature, total rides) scatter sample.
type Point struct {
	FeelsLikeC float64 `json:"feels_like_c" yaml:"feels_like_c"`
	Total      int     `json:"total" yaml:"total"`
}

// Aggregates are the reductions of a filtered Dataset. Every bucketed table
// lists all labels of its category in fixed order, with zero totals for
// labels that matched no rows.
type Aggregates struct {
	TotalCasual     int `json:"total_casual" yaml:"total_casual"`
	TotalRegistered int `json:"total_registered" yaml:"total_registered"`
	TotalRides      int `json:"total_rides" yaml:"total_rides"`

	RidesByWeekday []Bucket `json:"rides_by_weekday" yaml:"rides_by_weekday"`
	RidesBySeason  []Bucket `json:"rides_by_season" yaml:"rides_by_season"`
	RidesByWeather []Bucket `json:"rides_by_weather" yaml:"rides_by_weather"`

	RidersBySeason  []RiderBucket `json:"riders_by_season" yaml:"riders_by_season"`
	RidersByWeekday []RiderBucket `json:"riders_by_weekday" yaml:"riders_by_weekday"`
	// RidersByHour is only set for hourly data.
	RidersByHour []RiderBucket `json:"riders_by_hour,omitempty" yaml:"riders_by_hour,omitempty"`

	FeelsLikeVsRides []Point `json:"feels_like_vs_rides" yaml:"feels_like_vs_rides"`
}

// Aggregate computes every reduction over ds.
func Aggregate(ds *domain.Dataset) Aggregates {
	agg := Aggregates{
		TotalCasual:      TotalCasual(ds),
		TotalRegistered:  TotalRegistered(ds),
		TotalRides:       TotalRides(ds),
		RidesByWeekday:   RidesByWeekday(ds),
		RidesBySeason:    RidesBySeason(ds),
		RidesByWeather:   RidesByWeather(ds),
		RidersBySeason:   RidersBySeason(ds),
		RidersByWeekday:  RidersByWeekday(ds),
		FeelsLikeVsRides: FeelsLikeVsRides(ds),
	}
	if ds.Granularity() == domain.Hourly {
		agg.RidersByHour = RidersByHour(ds)
	}
	return agg
}

func TotalCasual(ds *domain.Dataset) int {
	return sum(ds, func(r domain.Record) int { return r.Casual })
}

func TotalRegistered(ds *domain.Dataset) int {
	return sum(ds, func(r domain.Record) int { return r.Registered })
}

func TotalRides(ds *domain.Dataset) int {
	return sum(ds, func(r domain.Record) int { return r.Total })
}

// RidesByWeekday sums total rides into 7 buckets, Sun through Sat.
func RidesByWeekday(ds *domain.Dataset) []Bucket {
	return ridesBy(ds, domain.Labels(ds.Granularity(), domain.Weekday), func(r domain.Record) string { return r.Weekday })
}

// RidesBySeason sums total rides into 4 buckets, Spring through Winter.
func RidesBySeason(ds *domain.Dataset) []Bucket {
	return ridesBy(ds, domain.Labels(ds.Granularity(), domain.Season), func(r domain.Record) string { return r.Season })
}

// RidesByWeather sums total rides into the 4 weather buckets of the
// dataset's granularity.
func RidesByWeather(ds *domain.Dataset) []Bucket {
	return ridesBy(ds, domain.Labels(ds.Granularity(), domain.Weather), func(r domain.Record) string { return r.Weather })
}

func RidersBySeason(ds *domain.Dataset) []RiderBucket {
	return ridersBy(ds, domain.Labels(ds.Granularity(), domain.Season), func(r domain.Record) string { return r.Season })
}

func RidersByWeekday(ds *domain.Dataset) []RiderBucket {
	return ridersBy(ds, domain.Labels(ds.Granularity(), domain.Weekday), func(r domain.Record) string { return r.Weekday })
}

// RidersByHour splits riders into 24 buckets labelled "0" to "23". Records
// without an hour are ignored, so daily data yields all-zero buckets.
func RidersByHour(ds *domain.Dataset) []RiderBucket {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = strconv.Itoa(h)
	}
	return ridersBy(ds, labels, func(r domain.Record) string {
		if r.Hour == nil {
			return ""
		}
		return strconv.Itoa(*r.Hour)
	})
}

// FeelsLikeVsRides returns one scatter point per record, in source order.
func FeelsLikeVsRides(ds *domain.Dataset) []Point {
	points := make([]Point, ds.Len())
	for i := range points {
		r := ds.At(i)
		points[i] = Point{FeelsLikeC: r.FeelsLikeC, Total: r.Total}
	}
	return points
}

func sum(ds *domain.Dataset, value func(domain.Record) int) int {
	total := 0
	for i := 0; i < ds.Len(); i++ {
		total += value(ds.At(i))
	}
	return total
}

// ridesBy seeds one bucket per label so that empty labels stay visible, then
// adds each record's total to its label.
func ridesBy(ds *domain.Dataset, labels []string, key func(domain.Record) string) []Bucket {
	buckets := make([]Bucket, len(labels))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		buckets[i].Label = l
		index[l] = i
	}
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if j, ok := index[key(r)]; ok {
			buckets[j].Total += r.Total
		}
	}
	return buckets
}

func ridersBy(ds *domain.Dataset, labels []string, key func(domain.Record) string) []RiderBucket {
	buckets := make([]RiderBucket, len(labels))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		buckets[i].Label = l
		index[l] = i
	}
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if j, ok := index[key(r)]; ok {
			buckets[j].Casual += r.Casual
			buckets[j].Registered += r.Registered
		}
	}
	return buckets
}
