// Package csvsource reads the provider's delimited files into raw records,
// enforcing the declared column schema before any row is decoded.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// Source reads one granularity's table from a file.
// It implements pipeline.Extractor.
type Source struct {
	path        string
	granularity domain.Granularity
}

// NewSource creates a Source for the file at path.
func NewSource(path string, g domain.Granularity) *Source {
	return &Source{path: path, granularity: g}
}

func (s *Source) Granularity() domain.Granularity { return s.granularity }

// Name identifies the source in errors and logs.
func (s *Source) Name() string { return filepath.Base(s.path) }

// Extract opens the file and decodes every row. Any failure is returned as a
// *domain.LoadError.
func (s *Source) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &domain.LoadError{Source: s.Name(), Err: err}
	}
	defer f.Close()

	rows, err := Decode(f, s.granularity)
	if err != nil {
		var le *domain.LoadError
		if errors.As(err, &le) {
			le.Source = s.Name()
			return nil, le
		}
		return nil, &domain.LoadError{Source: s.Name(), Err: err}
	}
	return rows, nil
}

// Decode reads a header plus data rows from r. The header must equal
// domain.Columns(g) exactly; rows are decoded by column name so a
// reordered file can never silently misalign fields.
func Decode(r io.Reader, g domain.Granularity) ([]domain.RawRecord, error) {
	columns := domain.Columns(g)
	if columns == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidGranularity, int(g))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.LoadError{Err: errors.New("empty file, missing header")}
		}
		return nil, &domain.LoadError{Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}
	if err := checkHeader(header, columns); err != nil {
		return nil, &domain.LoadError{Line: 1, Err: err}
	}

	var rows []domain.RawRecord //nolint:prealloc // row count depends on file contents
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &domain.LoadError{Line: line, Err: fmt.Errorf("%w: %w", domain.ErrMalformedRow, err)}
		}
		line, _ := cr.FieldPos(0)

		raw, err := decodeRow(columns, fields)
		if err != nil {
			return nil, &domain.LoadError{Line: line, Err: err}
		}
		raw.Line = line
		rows = append(rows, raw)
	}
	return rows, nil
}

// checkHeader compares the header against the expected columns and reports
// every mismatch at once.
func checkHeader(header, columns []string) error {
	var result *multierror.Error
	for i, want := range columns {
		got := strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		if got != want {
			result = multierror.Append(result, fmt.Errorf("column %d: expected %q, got %q", i+1, want, got))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("schema mismatch: %w", err)
	}
	return nil
}

// decodeRow maps the fields by column name into a RawRecord. Numeric text is
// converted by mapstructure; a non-numeric value fails the row.
func decodeRow(columns, fields []string) (domain.RawRecord, error) {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		v := strings.TrimSpace(fields[i])
		if v == "" {
			// mapstructure reads empty text as zero; a blank cell is a broken row.
			return domain.RawRecord{}, fmt.Errorf("%w: column %q is empty", domain.ErrMalformedRow, col)
		}
		values[col] = v
	}

	var raw domain.RawRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decimalHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &raw,
	})
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("build row decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return domain.RawRecord{}, fmt.Errorf("%w: %w", domain.ErrMalformedRow, err)
	}
	return raw, nil
}

var (
	intText   = regexp.MustCompile(`^-?[0-9]+$`)
	floatText = regexp.MustCompile(`^-?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?$`)
)

// decimalHook parses numeric cells as plain base-10 text. Weak decoding alone
// would accept prefixed integers such as 0x1 and float spellings such as NaN
// or Inf.
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !intText.MatchString(s) {
			return nil, fmt.Errorf("%q is not a decimal integer", s)
		}
		return strconv.ParseInt(s, 10, 64)
	case reflect.Float32, reflect.Float64:
		if !floatText.MatchString(s) {
			return nil, fmt.Errorf("%q is not a decimal number", s)
		}
		return strconv.ParseFloat(s, 64)
	default:
		return data, nil
	}
}
