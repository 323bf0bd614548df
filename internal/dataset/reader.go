// Package dataset reads vector datasets from JSON-lines and CSV files.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/knn/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions without a reader.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Extensions lists the file extensions ReadFile understands.
var Extensions = []string{".jsonl", ".csv"}

// ReadFile reads the dataset at path, choosing the format by extension.
func ReadFile(path string) ([]models.ItemInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadJSONL reads one item object per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]models.ItemInput, error) {
	var items []models.ItemInput
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var item models.ItemInput
		if err := json.Unmarshal(text, &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(item.Vector) == 0 {
			return nil, fmt.Errorf("line %d: missing vector", line)
		}
		if err := checkFinite(item.Vector); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return items, nil
}

// ReadCSV reads rows of the form id,label,v1,v2,...
// A first row whose third column is not a number is treated as a header.
func ReadCSV(r io.Reader) ([]models.ItemInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var items []models.ItemInput
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		row++
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: need id, label and at least one component", row)
		}
		if row == 1 && !isNumber(record[2]) {
			continue
		}
		vec := make([]float64, 0, len(record)-2)
		for i, field := range record[2:] {
			x, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d component %d: %w", row, i, err)
			}
			vec = append(vec, x)
		}
		if err := checkFinite(vec); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		items = append(items, models.ItemInput{
			ID:     strings.TrimSpace(record[0]),
			Label:  record[1],
			Vector: vec,
		})
	}
	return items, nil
}

func checkFinite(vec []float64) error {
	for i, x := range vec {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("component %d is not a finite number", i)
		}
	}
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// Supported reports whether path has a dataset extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return ext == ".ndjson"
}
