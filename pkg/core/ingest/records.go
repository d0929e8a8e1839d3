package ingest

import (
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

	"github.com/PuerkitoBio/goquery"

	"financial_dashboard/pkg/models"
)

var (
	// ErrUnsafePath is returned for filenames that escape the records directory.
	ErrUnsafePath = errors.New("filename must stay inside the results directory")
	// ErrUnsupportedFormat is returned for extensions the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported records format")
	// ErrRecordsNotFound is returned when the records file does not exist.
	ErrRecordsNotFound = errors.New("records file not found")
)

// RecordsLoader reads result records from files under one directory.
type RecordsLoader struct {
	dir string
}

// NewRecordsLoader creates a loader rooted at dir.
func NewRecordsLoader(dir string) *RecordsLoader {
	return &RecordsLoader{dir: dir}
}

func localName(filename string) (string, error) {
	name := filepath.Clean(strings.TrimSpace(filename))
	if name == "." || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filename)
	}
	return name, nil
}

// Resolve maps a user-supplied filename to a path inside the directory.
func (l *RecordsLoader) Resolve(filename string) (string, error) {
	name, err := localName(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

// Load reads .json, .csv, .html or .htm records. The file is opened through
// an os.Root, so symlinks that leave the directory are refused.
func (l *RecordsLoader) Load(filename string) (models.RecordSet, string, error) {
	name, err := localName(filename)
	if err != nil {
		return models.RecordSet{}, "", err
	}
	path := filepath.Join(l.dir, name)
	data, err := l.read(name)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return models.RecordSet{}, path, fmt.Errorf("%w: %s", ErrRecordsNotFound, filename)
		case l.escapes(path):
			return models.RecordSet{}, path, fmt.Errorf("%w: %q", ErrUnsafePath, filename)
		}
		return models.RecordSet{}, path, fmt.Errorf("failed to read records: %w", err)
	}
	rs, err := ParseRecords(filepath.Ext(path), data)
	if err != nil {
		return models.RecordSet{}, path, fmt.Errorf("%s: %w", filename, err)
	}
	return rs, path, nil
}

func (l *RecordsLoader) read(name string) ([]byte, error) {
	root, err := os.OpenRoot(l.dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// escapes reports whether path resolves, through symlinks, outside the directory.
func (l *RecordsLoader) escapes(path string) bool {
	dir, err := filepath.EvalSymlinks(l.dir)
	if err != nil {
		return false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, target)
	return err != nil || !filepath.IsLocal(rel)
}

// ParseRecords decodes records by file extension.
func ParseRecords(ext string, data []byte) (models.RecordSet, error) {
	switch strings.ToLower(ext) {
	case ".json":
		var rs models.RecordSet
		if err := json.Unmarshal(data, &rs); err != nil {
			return models.RecordSet{}, err
		}
		return rs, nil
	case ".csv":
		return parseCSV(bytes.NewReader(data))
	case ".html", ".htm":
		return parseHTMLTable(bytes.NewReader(data))
	default:
		return models.RecordSet{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// cellValue keeps numbers numeric and empty or non-finite cells null so the records look
// like their JSON counterparts.
func cellValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return f
	}
	return s
}

func fromTable(header []string, rows [][]string) models.RecordSet {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec := models.Record{}
		for i, h := range header {
			if h == "" {
				continue
			}
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if h == models.YearField || models.IsSymbolField(h) {
				rec[h] = strings.TrimSpace(cell)
				continue
			}
			rec[h] = cellValue(cell)
		}
		records = append(records, rec)
	}
	var cols []string
	for _, h := range header {
		if h != "" {
			cols = append(cols, h)
		}
	}
	return models.NewRecordSet(records, cols...)
}

func parseCSV(r io.Reader) (models.RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	all, err := cr.ReadAll()
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(all) == 0 {
		return models.RecordSet{}, nil
	}
	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return fromTable(header, all[1:]), nil
}

// parseHTMLTable reads the first table; its first row is the header.
func parseHTMLTable(r io.Reader) (models.RecordSet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to parse html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return models.RecordSet{}, fmt.Errorf("failed to parse html: no table")
	}

	var grid [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		if len(row) > 0 {
			grid = append(grid, row)
		}
	})
	if len(grid) == 0 {
		return models.RecordSet{}, nil
	}
	return fromTable(grid[0], grid[1:]), nil
}
