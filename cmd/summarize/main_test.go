package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixtureArgs(extra ...string) []string {
	dir := filepath.Join("..", "..", "testdata")
	return append([]string{
		"-day", filepath.Join(dir, "bike_data_day.csv"),
		"-hour", filepath.Join(dir, "bike_data_hour.csv"),
	}, extra...)
}

func TestRun_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), fixtureArgs("-start", "2011-01-01", "-end", "2011-01-07"), &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var body struct {
		Granularity string `json:"granularity"`
		Rows        int    `json:"rows"`
		Aggregates  struct {
			RidesByWeekday []struct {
				Label string `json:"label"`
			} `json:"rides_by_weekday"`
		} `json:"aggregates"`
		Records []json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &body))
	assert.Equal(t, "daily", body.Granularity)
	assert.Equal(t, 7, body.Rows)
	assert.Len(t, body.Aggregates.RidesByWeekday, 7)
	assert.Empty(t, body.Records)
}

func TestRun_YAMLWithRecords(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := fixtureArgs("-granularity", "hour", "-start", "2011-01-01", "-end", "2011-01-01", "-format", "yaml", "-records")
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	var body map[string]any
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &body))
	assert.Equal(t, "hourly", body["granularity"])
	assert.Equal(t, 24, body["rows"])

	records, ok := body["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 24)

	aggs, ok := body["aggregates"].(map[string]any)
	require.True(t, ok)
	hours, ok := aggs["riders_by_hour"].([]any)
	require.True(t, ok)
	assert.Len(t, hours, 24)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown granularity", args: []string{"-granularity", "weekly"}},
		{name: "bad start", args: []string{"-start", "2011/01/01"}},
		{name: "bad end", args: []string{"-end", "tomorrow"}},
		{name: "bad format", args: []string{"-format", "xml"}},
		{name: "unknown flag", args: []string{"-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, err := parseFlags(tt.args, &stderr)
			assert.Error(t, err)
		})
	}
}

func TestRun_MissingSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-day", "does-not-exist.csv", "-hour", "nope.csv"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.csv")
	assert.Empty(t, stdout.String())
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is silent", func(t *testing.T) {
		var stderr bytes.Buffer
		loadEnvFile(&stderr, filepath.Join(t.TempDir(), ".env"))
		assert.Empty(t, stderr.String())
	})

	t.Run("malformed file is reported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o600))

		var stderr bytes.Buffer
		loadEnvFile(&stderr, path)
		assert.Contains(t, stderr.String(), "failed to read .env file")
		assert.Contains(t, stderr.String(), "unexpected character")
	})
}
