// Command genmock writes synthetic daily and hourly tables that follow the
// provider schema. Hourly rider counts sum to the daily row of the same date,
// so the output passes cmd/validate. After writing, it loads the files back
// through the real pipeline and prints the aggregates for updating test
// assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -seed 42 -days 60
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/csvsource"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/pipeline"
)

const (
	dayFile  = "bike_data_day.csv"
	hourFile = "bike_data_hour.csv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the generated tables")
	seed := flag.Uint64("seed", 1, "random seed")
	days := flag.Int("days", 731, "number of days to generate, starting 2011-01-01")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	if err := generateFiles(*out, *seed, *days); err != nil {
		return err
	}
	log.Printf("wrote %s and %s to %s", dayFile, hourFile, *out)

	return printStats(*out)
}

func generateFiles(dir string, seed uint64, days int) error {
	maxDays := int(domain.LastDate.Sub(domain.FirstDate).Hours()/24) + 1
	if days < 1 || days > maxDays {
		return fmt.Errorf("days must be between 1 and %d, got %d", maxDays, days)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dayOut, err := os.Create(filepath.Join(dir, dayFile))
	if err != nil {
		return err
	}
	defer dayOut.Close()
	hourOut, err := os.Create(filepath.Join(dir, hourFile))
	if err != nil {
		return err
	}
	defer hourOut.Close()

	if err := generate(dayOut, hourOut, seed, days); err != nil {
		return err
	}
	if err := dayOut.Close(); err != nil {
		return err
	}
	return hourOut.Close()
}

// generate writes days of rows to the daily and hourly writers.
func generate(dayW, hourW io.Writer, seed uint64, days int) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))

	dw, hw := csv.NewWriter(dayW), csv.NewWriter(hourW)
	if err := dw.Write(domain.Columns(domain.Daily)); err != nil {
		return err
	}
	if err := hw.Write(domain.Columns(domain.Hourly)); err != nil {
		return err
	}

	hourInstant := 0
	for i := 0; i < days; i++ {
		date := domain.FirstDate.AddDate(0, 0, i)
		cal := newCalendar(date)

		var casual, registered int
		var tempSum, atempSum, humSum, windSum float64
		worstWeather := 1
		for h := 0; h < 24; h++ {
			wx := sampleWeather(rng, cal)
			c, r := sampleRiders(rng, cal, h, wx.code)
			casual += c
			registered += r
			tempSum += wx.temp
			atempSum += wx.atemp
			humSum += wx.hum
			windSum += wx.wind
			worstWeather = max(worstWeather, wx.code)

			hourInstant++
			row := append(cal.fields(hourInstant), strconv.Itoa(h))
			row = append(row, cal.flags()...)
			row = append(row, strconv.Itoa(wx.code),
				formatUnit(wx.temp), formatUnit(wx.atemp), formatUnit(wx.hum), formatUnit(wx.wind),
				strconv.Itoa(c), strconv.Itoa(r), strconv.Itoa(c+r))
			if err := hw.Write(row); err != nil {
				return err
			}
		}

		// Daily weather codes stop at 3 in the provider's daily table.
		row := append(cal.fields(i+1), cal.flags()...)
		row = append(row, strconv.Itoa(min(worstWeather, 3)),
			formatUnit(tempSum/24), formatUnit(atempSum/24), formatUnit(humSum/24), formatUnit(windSum/24),
			strconv.Itoa(casual), strconv.Itoa(registered), strconv.Itoa(casual+registered))
		if err := dw.Write(row); err != nil {
			return err
		}
	}

	dw.Flush()
	hw.Flush()
	if err := dw.Error(); err != nil {
		return err
	}
	return hw.Error()
}

// calendar holds the date-derived columns shared by a day's rows.
type calendar struct {
	date       time.Time
	season     int
	holiday    bool
	weekday    int
	workingDay bool
}

func newCalendar(date time.Time) calendar {
	holiday := (date.Month() == time.July && date.Day() == 4) ||
		(date.Month() == time.December && date.Day() == 25)
	wd := int(date.Weekday())
	return calendar{
		date:       date,
		season:     int(date.Month())%12/3 + 1,
		holiday:    holiday,
		weekday:    wd,
		workingDay: wd >= 1 && wd <= 5 && !holiday,
	}
}

// fields returns instant, dteday, season, yr, mnth.
func (c calendar) fields(instant int) []string {
	return []string{
		strconv.Itoa(instant),
		c.date.Format(domain.DateLayout),
		strconv.Itoa(c.season),
		strconv.Itoa(c.date.Year() - domain.FirstDate.Year()),
		strconv.Itoa(int(c.date.Month())),
	}
}

// flags returns holiday, weekday, workingday.
func (c calendar) flags() []string {
	return []string{boolCode(c.holiday), strconv.Itoa(c.weekday), boolCode(c.workingDay)}
}

type weather struct {
	code                   int
	temp, atemp, hum, wind float64
}

func sampleWeather(rng *rand.Rand, cal calendar) weather {
	// Warmest around late July.
	dayOfYear := float64(cal.date.YearDay())
	seasonal := 0.5 - 0.3*math.Cos(2*math.Pi*(dayOfYear-20)/365)
	temp := clampUnit(seasonal + rng.NormFloat64()*0.05)

	code := 1
	switch p := rng.Float64(); {
	case p > 0.98:
		code = 4
	case p > 0.9:
		code = 3
	case p > 0.65:
		code = 2
	}
	return weather{
		code:  code,
		temp:  temp,
		atemp: clampUnit(temp*0.95 + rng.NormFloat64()*0.02),
		hum:   clampUnit(0.55 + 0.1*float64(code) + rng.NormFloat64()*0.08),
		wind:  clampUnit(0.2 + rng.NormFloat64()*0.08),
	}
}

// sampleRiders draws casual and registered counts for one hour. Registered
// riders peak at commute hours on working days; casual riders peak in the
// afternoon on days off.
func sampleRiders(rng *rand.Rand, cal calendar, hour, weatherCode int) (int, int) {
	commute := math.Exp(-math.Pow(float64(hour-8), 2)/4) + math.Exp(-math.Pow(float64(hour-17), 2)/4)
	afternoon := math.Exp(-math.Pow(float64(hour-14), 2) / 12)

	registeredMean := 20 + 200*afternoon*0.3
	casualMean := 2 + 30*afternoon
	if cal.workingDay {
		registeredMean += 350 * commute
	} else {
		casualMean *= 3
	}
	damp := 1 - 0.25*float64(weatherCode-1)

	return poissonish(rng, casualMean*damp), poissonish(rng, registeredMean*damp)
}

func poissonish(rng *rand.Rand, mean float64) int {
	v := mean + rng.NormFloat64()*math.Sqrt(mean)
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func formatUnit(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

func boolCode(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// printStats loads the generated files through the pipeline and prints the
// daily aggregates.
func printStats(dir string) error {
	p := pipeline.New(
		csvsource.NewSource(filepath.Join(dir, dayFile), domain.Daily),
		csvsource.NewSource(filepath.Join(dir, hourFile), domain.Hourly),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
	sets, err := p.Load(context.Background())
	if err != nil {
		return fmt.Errorf("reload generated tables: %w", err)
	}

	agg := analysis.Aggregate(sets.Daily)
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: daily=%d hourly=%d\n", sets.Daily.Len(), sets.Hourly.Len())
	fmt.Printf("Riders: casual=%d registered=%d total=%d\n", agg.TotalCasual, agg.TotalRegistered, agg.TotalRides)
	fmt.Println("By weekday:")
	for _, b := range agg.RidesByWeekday {
		fmt.Printf("  %-5s %d\n", b.Label, b.Total)
	}
	fmt.Println("By season:")
	for _, b := range agg.RidesBySeason {
		fmt.Printf("  %-7s %d\n", b.Label, b.Total)
	}
	return nil
}
