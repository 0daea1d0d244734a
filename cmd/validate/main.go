// Command validate performs data integrity checks across the daily and hourly
// source tables. Unlike the service loader, which stops at the first bad row,
// it reports every problem it finds: schema and decoding errors, rows that do
// not normalize, date coverage gaps or duplicates, and disagreements between
// a day's hourly rows and its daily row.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -day data/bike_data_day.csv \
//	  -hour data/bike_data_hour.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/csvsource"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// hoursPerDay is the row count of a day with full hourly coverage.
const hoursPerDay = 24

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dayPath := flag.String("day", "", "path to the daily CSV table")
	hourPath := flag.String("hour", "", "path to the hourly CSV table")
	flag.Parse()

	if *dayPath == "" || *hourPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dayPath, *hourPath, os.Stdout, os.Stderr))
}

// row pairs a normalized record with its source line.
type row struct {
	line int
	raw  domain.RawRecord
	rec  domain.Record
}

func run(dayPath, hourPath string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "=== Bike Share Data Integrity Validation ===")
	fmt.Fprintln(stdout)

	ctx := context.Background()
	dailyRaw, err := csvsource.NewSource(dayPath, domain.Daily).Extract(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	hourlyRaw, err := csvsource.NewSource(hourPath, domain.Hourly).Extract(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	dailyPhase, daily := validateRows("Phase 1: Daily rows (normalization)", domain.Daily, dailyRaw)
	hourlyPhase, hourly := validateRows("Phase 2: Hourly rows (normalization)", domain.Hourly, hourlyRaw)

	phases := []*phase{
		dailyPhase,
		hourlyPhase,
		validateCoverage(daily, hourly),
		validateConsistency(daily, hourly),
	}

	fmt.Fprintln(stdout)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d daily, %d hourly\n", len(dailyRaw), len(hourlyRaw))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// validateRows normalizes every row and records each failure. Rows that fail
// are left out of the returned slice.
func validateRows(name string, g domain.Granularity, raws []domain.RawRecord) (*phase, []row) {
	p := &phase{name: name}
	rows := make([]row, 0, len(raws))
	for _, raw := range raws {
		rec, err := domain.Normalize(g, raw)
		if err != nil {
			p.errorf("line %d: %v", raw.Line, err)
			continue
		}
		rows = append(rows, row{line: raw.Line, raw: raw, rec: rec})
	}
	if len(raws) == 0 {
		p.errorf("%s table has no rows", g)
	}
	return p, rows
}

type hourKey struct {
	date time.Time
	hour int
}

// validateCoverage checks that dates ascend without duplicates and that the
// instant column increases strictly. Samples may skip instants.
func validateCoverage(daily, hourly []row) *phase {
	p := &phase{name: "Phase 3: Date coverage (order, duplicates)"}

	for i, r := range daily {
		if i == 0 {
			continue
		}
		if r.raw.Instant <= daily[i-1].raw.Instant {
			p.errorf("daily line %d: instant %d does not increase", r.line, r.raw.Instant)
		}
		if !r.rec.Date.After(daily[i-1].rec.Date) {
			p.errorf("daily line %d: date %s does not follow %s",
				r.line, r.rec.Date.Format(domain.DateLayout), daily[i-1].rec.Date.Format(domain.DateLayout))
		}
	}

	seen := make(map[hourKey]int, len(hourly))
	for i, r := range hourly {
		if i > 0 && r.raw.Instant <= hourly[i-1].raw.Instant {
			p.errorf("hourly line %d: instant %d does not increase", r.line, r.raw.Instant)
		}
		k := hourKey{date: r.rec.Date, hour: *r.rec.Hour}
		if prev, ok := seen[k]; ok {
			p.errorf("hourly line %d: duplicate of line %d (%s hour %d)", r.line, prev, k.date.Format(domain.DateLayout), k.hour)
			continue
		}
		seen[k] = r.line
		if i > 0 {
			prev := hourly[i-1].rec
			if r.rec.Date.Before(prev.Date) || (r.rec.Date.Equal(prev.Date) && *r.rec.Hour < *prev.Hour) {
				p.errorf("hourly line %d: out of order", r.line)
			}
		}
	}
	return p
}

type dayTotals struct {
	rows       int
	casual     int
	registered int
	total      int
}

// validateConsistency checks every hourly row against the daily row of the
// same date. Calendar fields must always agree; ride counts are compared only
// for days with full hourly coverage.
func validateConsistency(daily, hourly []row) *phase {
	p := &phase{name: "Phase 4: Daily/hourly consistency"}

	byDate := make(map[time.Time]domain.Record, len(daily))
	for _, r := range daily {
		byDate[r.rec.Date] = r.rec
	}

	totals := map[time.Time]*dayTotals{}
	var order []time.Time
	for _, r := range hourly {
		d, ok := byDate[r.rec.Date]
		if !ok {
			p.errorf("hourly line %d: no daily row for %s", r.line, r.rec.Date.Format(domain.DateLayout))
			continue
		}
		if d.Season != r.rec.Season || d.Weekday != r.rec.Weekday ||
			d.Holiday != r.rec.Holiday || d.WorkingDay != r.rec.WorkingDay ||
			d.Year != r.rec.Year || d.Month != r.rec.Month {
			p.errorf("hourly line %d: calendar fields disagree with daily row for %s", r.line, r.rec.Date.Format(domain.DateLayout))
		}

		t, ok := totals[r.rec.Date]
		if !ok {
			t = &dayTotals{}
			totals[r.rec.Date] = t
			order = append(order, r.rec.Date)
		}
		t.rows++
		t.casual += r.rec.Casual
		t.registered += r.rec.Registered
		t.total += r.rec.Total
	}

	for _, date := range order {
		t := totals[date]
		if t.rows != hoursPerDay {
			continue
		}
		d := byDate[date]
		if t.casual != d.Casual || t.registered != d.Registered || t.total != d.Total {
			p.errorf("%s: hourly sums casual=%d registered=%d cnt=%d, daily row has %d/%d/%d",
				date.Format(domain.DateLayout), t.casual, t.registered, t.total, d.Casual, d.Registered, d.Total)
		}
	}
	return p
}
