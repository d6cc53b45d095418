// Package csvutil reads CSV exports row by row into typed records.
package csvutil

import (
	"encoding/csv"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// FieldsPerRecord sets the expected number of fields per record.
	// 0 accepts any width; rows are checked by the parser instead.
	FieldsPerRecord int

	// SkipInvalid logs and skips rows the parser rejects instead of failing.
	SkipInvalid bool
}

// Result holds the parsed rows and how many rows were skipped
type Result[T any] struct {
	Items   []T
	Skipped int
}

// ProcessCSV opens filename and parses it with ProcessReader
func ProcessCSV[T any](filename string, parser func([]string) (T, error), opts ProcessorOptions) (Result[T], error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return Result[T]{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return Result[T]{}, fmt.Errorf("CSV file is empty or cannot be read")
	}

	return ProcessReader(csvFile, parser, opts)
}

// ProcessReader skips the header row and converts every following record with parser
func ProcessReader[T any](r io.Reader, parser func([]string) (T, error), opts ProcessorOptions) (Result[T], error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = opts.FieldsPerRecord
	if opts.FieldsPerRecord == 0 {
		reader.FieldsPerRecord = -1
	}
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		return Result[T]{}, fmt.Errorf("failed to read header: %w", err)
	}

	var result Result[T]
	for {
		record, err := reader.Read()
		if stdErrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !opts.SkipInvalid {
				return Result[T]{}, fmt.Errorf("failed to read record: %w", err)
			}
			slog.Warn("Error reading record", "error", err)
			result.Skipped++
			continue
		}

		item, err := parser(record)
		if err != nil {
			if !opts.SkipInvalid {
				return Result[T]{}, fmt.Errorf("invalid record: %w", err)
			}
			slog.Warn("Skipping invalid record", "error", err)
			result.Skipped++
			continue
		}

		result.Items = append(result.Items, item)
	}

	return result, nil
}
