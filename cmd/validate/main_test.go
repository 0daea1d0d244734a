package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dayHeader  = "instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt"
	hourHeader = "instant,dteday,season,yr,mnth,hr,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt"
)

func writeTable(t *testing.T, name, header string, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := header + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_FixturesPass(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata")
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join(dir, "bike_data_day.csv"), filepath.Join(dir, "bike_data_hour.csv"), &stdout, &stderr)

	assert.Equal(t, 0, code, stdout.String()+stderr.String())
	assert.Contains(t, stdout.String(), "All validations passed.")
	assert.Contains(t, stdout.String(), "Records: 13 daily, 27 hourly")
}

func TestRun_ReportsEveryProblem(t *testing.T) {
	day := writeTable(t, "day.csv", dayHeader,
		"1,2011-01-01,1,0,1,0,6,0,2,0.34,0.36,0.80,0.16,10,20,30",
		"2,2011-01-01,1,0,1,0,6,0,2,0.34,0.36,0.80,0.16,10,20,30",
		"3,2011-01-03,1,0,1,0,1,1,9,0.34,0.36,0.80,0.16,10,20,30",
	)
	hour := writeTable(t, "hour.csv", hourHeader,
		"1,2011-01-01,1,0,1,0,0,6,0,1,0.24,0.28,0.81,0.0,1,2,3",
		"2,2011-01-01,1,0,1,1,0,5,0,1,0.24,0.28,0.81,0.0,1,2,3",
		"3,2011-01-05,1,0,1,0,0,3,1,1,0.24,0.28,0.81,0.0,1,2,4",
	)
	var stdout, stderr bytes.Buffer

	code := run(day, hour, &stdout, &stderr)

	out := stdout.String()
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Validation FAILED.")
	assert.Contains(t, out, "line 4: unknown weathersit code 9 for daily data")
	assert.Contains(t, out, "line 4: malformed row: cnt=4 != casual+registered=3")
	assert.Contains(t, out, "daily line 3: date 2011-01-01 does not follow 2011-01-01")
	assert.Contains(t, out, "hourly line 3: calendar fields disagree")
}

func TestRun_HourlySumsMustMatchDailyRow(t *testing.T) {
	hourRows := make([]string, 0, hoursPerDay)
	for h := 0; h < hoursPerDay; h++ {
		hourRows = append(hourRows, strings.Join([]string{
			strconv.Itoa(h + 1), "2011-01-01", "1", "0", "1", strconv.Itoa(h), "0", "6", "0", "1",
			"0.24", "0.28", "0.81", "0.0", "1", "1", "2",
		}, ","))
	}
	hour := writeTable(t, "hour.csv", hourHeader, hourRows...)
	day := writeTable(t, "day.csv", dayHeader, "1,2011-01-01,1,0,1,0,6,0,1,0.34,0.36,0.80,0.16,24,25,49")
	var stdout, stderr bytes.Buffer

	code := run(day, hour, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "2011-01-01: hourly sums casual=24 registered=24 cnt=48, daily row has 24/25/49")
}

func TestRun_MissingFileIsFatal(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run("missing-day.csv", "missing-hour.csv", &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "FATAL: load missing-day.csv")
}
