package sqlpen

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

// File extensions
const (
	// extCSV is the CSV file extension
	extCSV = ".csv"
	// extTSV is the TSV file extension
	extTSV = ".tsv"
	// extXLSX is the Excel workbook extension
	extXLSX = ".xlsx"
	// extParquet is the Parquet file extension
	extParquet = ".parquet"
	// extSQLite is the prebuilt database extension
	extSQLite = ".sqlite"
	// extGZ is the gzip compression extension
	extGZ = ".gz"
	// extBZ2 is the bzip2 compression extension
	extBZ2 = ".bz2"
	// extXZ is the xz compression extension
	extXZ = ".xz"
	// extZSTD is the zstd compression extension
	extZSTD = ".zst"
)

// File format delimiters
const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// FileKind is the inferred kind of an uploaded file.
type FileKind int

const (
	// FileKindUnsupported represents an unrecognized extension
	FileKindUnsupported FileKind = iota
	// FileKindCSV represents comma-delimited text
	FileKindCSV
	// FileKindTSV represents tab-delimited text
	FileKindTSV
	// FileKindXLSX represents an Excel workbook
	FileKindXLSX
	// FileKindParquet represents a Parquet file
	FileKindParquet
	// FileKindSQLite represents a prebuilt database file
	FileKindSQLite
)

// UploadedFile is a transient upload: a name and its byte content.
// It is consumed once by the ingestion pipeline and not retained.
type UploadedFile struct {
	// Name is the original file name; the kind is inferred from it.
	Name string
	// Data is the raw file content.
	Data []byte
}

// Kind returns the inferred file kind.
func (f UploadedFile) Kind() FileKind {
	return detectFileKind(f.Name)
}

// detectFileKind detects file kind from the name, considering
// compression extensions. Prebuilt databases are never compressed.
func detectFileKind(name string) FileKind {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, extSQLite) {
		return FileKindSQLite
	}

	for _, ext := range []string{extGZ, extBZ2, extXZ, extZSTD} {
		if strings.HasSuffix(lower, ext) {
			lower = strings.TrimSuffix(lower, ext)
			break
		}
	}

	switch filepath.Ext(lower) {
	case extCSV:
		return FileKindCSV
	case extTSV:
		return FileKindTSV
	case extXLSX:
		return FileKindXLSX
	case extParquet:
		return FileKindParquet
	default:
		return FileKindUnsupported
	}
}

// openReader returns a reader over the file content that handles the
// compression indicated by the name suffix.
func (f UploadedFile) openReader() (io.Reader, func() error, error) {
	base := bytes.NewReader(f.Data)
	lower := strings.ToLower(f.Name)

	switch {
	case strings.HasSuffix(lower, extGZ):
		gzReader, err := gzip.NewReader(base)
		if err != nil {
			return nil, nil, err
		}
		return gzReader, gzReader.Close, nil
	case strings.HasSuffix(lower, extBZ2):
		return bzip2.NewReader(base), nil, nil
	case strings.HasSuffix(lower, extXZ):
		xzReader, err := xz.NewReader(base)
		if err != nil {
			return nil, nil, err
		}
		return xzReader, nil, nil
	case strings.HasSuffix(lower, extZSTD):
		decoder, err := zstd.NewReader(base)
		if err != nil {
			return nil, nil, err
		}
		return decoder, func() error { decoder.Close(); return nil }, nil
	default:
		return base, nil, nil
	}
}

// tables parses the upload into one or more tables. Delimited text and
// Parquet files yield a single table named after the file; a workbook
// yields one table per sheet, named after the sheet. Prebuilt database
// files are not parsed.
func (f UploadedFile) tables() ([]*table, error) {
	switch f.Kind() {
	case FileKindCSV:
		t, err := f.parseDelimited(csvDelimiter)
		if err != nil {
			return nil, err
		}
		return []*table{t}, nil
	case FileKindTSV:
		t, err := f.parseDelimited(tsvDelimiter)
		if err != nil {
			return nil, err
		}
		return []*table{t}, nil
	case FileKindXLSX:
		return f.parseXLSX()
	case FileKindParquet:
		t, err := f.parseParquet()
		if err != nil {
			return nil, err
		}
		return []*table{t}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Name)
	}
}

// parseDelimited parses CSV or TSV content into a single table named
// after the file.
func (f UploadedFile) parseDelimited(delimiter rune) (*table, error) {
	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() {
			_ = closer()
		}()
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, f.Name)
	}

	if err := validateColumnNames(rows[0]); err != nil {
		return nil, err
	}

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, newRecord(row))
	}

	return newTable(nameFromFile(f.Name), newHeader(normalizeHeader(rows[0])), records), nil
}

// parseXLSX parses a workbook into one table per sheet. Sheet names are
// normalized the same way file names are.
func (f UploadedFile) parseXLSX() ([]*table, error) {
	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() {
			_ = closer()
		}()
	}

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = workbook.Close() // Ignore close error
	}()

	sheetNames := workbook.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSheets, f.Name)
	}

	tables := make([]*table, 0, len(sheetNames))
	for _, sheetName := range sheetNames {
		rows, err := workbook.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: sheet %s of %s", ErrEmptyData, sheetName, f.Name)
		}
		if err := validateColumnNames(rows[0]); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheetName, err)
		}

		headers, records := sheetRowsToTable(rows)
		tables = append(tables, newTable(normalizeName(sheetName), headers, records))
	}
	return tables, nil
}

// sheetRowsToTable converts workbook rows to a header and records.
// The first row becomes the header; shorter data rows are padded.
func sheetRowsToTable(rows [][]string) (header, []record) {
	headers := newHeader(normalizeHeader(rows[0]))

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(record, len(headers))
		for i := range headers {
			if i < len(row) {
				rec[i] = row[i]
			} else {
				rec[i] = "" // Pad with empty string if row is shorter
			}
		}
		records = append(records, rec)
	}
	return headers, records
}

// parseParquet parses Parquet content into a single table named after
// the file. All values are rendered to strings; type inference then
// picks the column affinity like for delimited files.
func (f UploadedFile) parseParquet() (*table, error) {
	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() {
			_ = closer()
		}()
	}

	// Parquet requires random access
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, f.Name)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", f.Name, err)
	}
	defer func() {
		_ = pqReader.Close()
	}()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader for %s: %w", f.Name, err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table from %s: %w", f.Name, err)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	headers := make(header, schema.NumFields())
	for i, field := range schema.Fields() {
		headers[i] = field.Name
	}
	headers = normalizeHeader(headers)

	tableReader := array.NewTableReader(arrowTable, 0)
	defer tableReader.Release()

	var records []record
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parquet records from %s: %w", f.Name, err)
	}

	return newTable(nameFromFile(f.Name), headers, records), nil
}

// arrowValueString renders one arrow array value as a string; nulls
// become the empty string.
func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	return col.ValueStr(i)
}

// normalizeHeader applies identifier normalization to every column name.
func normalizeHeader(names []string) []string {
	normalized := make([]string, len(names))
	for i, name := range names {
		normalized[i] = normalizeName(name)
	}
	return normalized
}
