package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"risklo/internal/domain"
)

// CSVDirProvider serves sheets exported as <name>.csv files in a directory.
type CSVDirProvider struct {
	dir string
}

// NewCSVDirProvider creates a provider reading from dir.
func NewCSVDirProvider(dir string) *CSVDirProvider {
	return &CSVDirProvider{dir: dir}
}

var _ Provider = (*CSVDirProvider)(nil)

// SheetNames returns the file names without extension, sorted and filtered.
func (p *CSVDirProvider) SheetNames(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read sheet dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return FilterSheetNames(names), nil
}

// Rows parses <dir>/<name>.csv. Every cell is returned as a string.
func (p *CSVDirProvider) Rows(ctx context.Context, name string) ([]domain.SheetRow, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, ErrSheetNotFound
	}

	f, err := os.Open(filepath.Join(p.dir, name+".csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("open sheet %s: %w", name, err)
	}
	defer f.Close()

	return ReadRows(f)
}

// ReadRows parses CSV text into sheet rows. Rows may have differing lengths.
func ReadRows(r io.Reader) ([]domain.SheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []domain.SheetRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sheet csv: %w", err)
		}
		row := make(domain.SheetRow, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}
