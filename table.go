package sqlpen

import (
	"path/filepath"
	"strconv"
	"strings"
)

// header is the ordered list of column names of a table.
type header []string

// newHeader create new header.
func newHeader(h []string) header {
	return header(h)
}

// record is one data row; values are kept as strings until type
// inference decides the column affinity.
type record []string

// newRecord create new record.
func newRecord(r []string) record {
	return record(r)
}

// table represents file contents as database table structure.
type table struct {
	// name is the table name derived from file or sheet name.
	name string
	// header is table header.
	header header
	// records is table records.
	records []record
	// columns contains inferred type information for each column
	columns []columnInfo
}

// newTable create new table. Column types are inferred from the records.
func newTable(name string, header header, records []record) *table {
	return &table{
		name:    name,
		header:  header,
		records: records,
		columns: inferColumnsInfo(header, records),
	}
}

// columnType is the SQLite type affinity chosen for a column.
type columnType int

const (
	columnTypeText columnType = iota
	columnTypeInteger
	columnTypeReal
)

// string returns the SQL type name for CREATE TABLE
func (ct columnType) string() string {
	switch ct {
	case columnTypeInteger:
		return "INTEGER"
	case columnTypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// columnInfo pairs a column name with its inferred type.
type columnInfo struct {
	Name string
	Type columnType
}

// inferColumnType infers the SQL column type from a slice of string values.
// Empty values are skipped; a single non-numeric value makes the column TEXT.
func inferColumnType(values []string) columnType {
	hasReal := false
	hasInteger := false

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			hasInteger = true
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			hasReal = true
			continue
		}
		return columnTypeText
	}

	if hasReal {
		return columnTypeReal
	}
	if hasInteger {
		return columnTypeInteger
	}
	return columnTypeText
}

// inferColumnsInfo infers column information from header and data records
func inferColumnsInfo(header header, records []record) []columnInfo {
	if len(header) == 0 {
		return nil
	}

	columns := make([]columnInfo, len(header))
	for i, name := range header {
		columns[i] = columnInfo{Name: name, Type: columnTypeText}
	}

	if len(records) == 0 {
		return columns
	}

	for i := range header {
		values := make([]string, 0, len(records))
		for _, rec := range records {
			if i < len(rec) {
				values = append(values, rec[i])
			}
		}
		columns[i].Type = inferColumnType(values)
	}

	return columns
}

// normalizeName replaces hyphens with underscores so that derived
// database and table identifiers are valid store identifiers.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// nameFromFile derives a normalized database or table name from a file
// name: compression extension and file type extension are stripped,
// hyphens replaced with underscores.
func nameFromFile(fileName string) string {
	base := filepath.Base(fileName)
	for _, ext := range []string{extGZ, extBZ2, extXZ, extZSTD} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return normalizeName(base)
}

// validateColumnNames rejects duplicate column names in a header.
func validateColumnNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return errDuplicateColumnName
		}
		seen[name] = struct{}{}
	}
	return nil
}
