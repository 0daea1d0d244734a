// Command summarize loads the two source tables once, computes a single view
// and prints it as JSON or YAML. With -publish the view is also sent to the
// configured Kafka topic.
//
// Usage:
//
//	go run ./cmd/summarize \
//	  -day data/bike_data_day.csv \
//	  -hour data/bike_data_hour.csv \
//	  -granularity daily -start 2011-01-01 -end 2011-01-07 -format yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/csvsource"
	kafkaadapter "github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/config"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/pipeline"
)

func main() {
	loadEnvFile(os.Stderr)

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "summarize: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile reads .env, or the named files, into the environment. A missing
// file is fine; an unreadable or malformed one is reported and skipped.
func loadEnvFile(stderr io.Writer, filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "summarize: failed to read .env file: %v\n", err)
	}
}

type options struct {
	dayPath     string
	hourPath    string
	granularity domain.Granularity
	start       time.Time
	end         time.Time
	format      string
	records     bool
	publish     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)

	day := fs.String("day", sharedcfg.EnvOrDefault("DAY_DATA_PATH", "data/bike_data_day.csv"), "path to the daily CSV table")
	hour := fs.String("hour", sharedcfg.EnvOrDefault("HOUR_DATA_PATH", "data/bike_data_hour.csv"), "path to the hourly CSV table")
	gran := fs.String("granularity", "daily", "daily or hourly")
	start := fs.String("start", domain.FirstDate.Format(domain.DateLayout), "first date, YYYY-MM-DD")
	end := fs.String("end", domain.LastDate.Format(domain.DateLayout), "last date, YYYY-MM-DD")
	format := fs.String("format", "json", "output format: json or yaml")
	records := fs.Bool("records", false, "include the filtered rows")
	publish := fs.Bool("publish", false, "also publish the view to KAFKA_VIEW_TOPIC")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{dayPath: *day, hourPath: *hour, format: *format, records: *records, publish: *publish}

	var err error
	if opts.granularity, err = domain.ParseGranularity(*gran); err != nil {
		return options{}, err
	}
	if opts.start, err = time.Parse(domain.DateLayout, *start); err != nil {
		return options{}, &domain.ParseError{Field: "start", Value: *start, Err: err}
	}
	if opts.end, err = time.Parse(domain.DateLayout, *end); err != nil {
		return options{}, &domain.ParseError{Field: "end", Value: *end, Err: err}
	}
	if opts.format != "json" && opts.format != "yaml" {
		return options{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	return opts, nil
}

// output is the printed document: the view summary plus, on request, its rows.
type output struct {
	analysis.View `yaml:",inline"`
	Records       []domain.Record `json:"records,omitempty" yaml:"records,omitempty"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(
		csvsource.NewSource(opts.dayPath, domain.Daily),
		csvsource.NewSource(opts.hourPath, domain.Hourly),
		logger,
		metrics,
	)
	datasets, err := p.Load(ctx)
	if err != nil {
		return err
	}

	var svcOpts []analysis.ServiceOption
	if opts.publish {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		publisher := kafkaadapter.NewSyncPublisher(cfg, logger)
		defer publisher.Close()
		svcOpts = append(svcOpts, analysis.WithSink(publisher))
	}

	v, err := analysis.NewService(datasets, logger, metrics, svcOpts...).View(opts.granularity, opts.start, opts.end)
	if err != nil {
		return err
	}

	out := output{View: v}
	if opts.records {
		out.Records = v.Dataset.Records()
	}
	return encode(stdout, opts.format, out)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return errors.New("unsupported format " + format)
	}
}
