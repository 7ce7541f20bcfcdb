package trainer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// ExampleRow is the parquet layout of a TrainingExample.
type ExampleRow struct {
	Ply    int32     `parquet:"ply"`
	State  []float64 `parquet:"state"`
	Policy []float64 `parquet:"policy"`
	Value  float64   `parquet:"value"`
}

// WriteExamples stores examples at path, replacing any existing file.
func WriteExamples(path string, examples []TrainingExample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rows := make([]ExampleRow, len(examples))
	for i, example := range examples {
		rows[i] = ExampleRow{
			Ply:    int32(i),
			State:  example.State,
			Policy: example.Policy,
			Value:  example.Value,
		}
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("state"),
		parquet.KeyValueMetadata("schema", "connectfour_example_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadExamples loads examples written by WriteExamples.
func ReadExamples(path string) ([]TrainingExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ExampleRow](pf)
	defer reader.Close()

	rows := make([]ExampleRow, reader.NumRows())
	total := 0
	for total < len(rows) {
		n, err := reader.Read(rows[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
		if n == 0 {
			break
		}
	}

	examples := make([]TrainingExample, total)
	for i, row := range rows[:total] {
		examples[i] = TrainingExample{State: row.State, Policy: row.Policy, Value: row.Value}
	}
	return examples, nil
}
