package sqlpen

import "errors"

// Standard error values for consistency across the package
var (
	// errDuplicateColumnName is returned when a file contains duplicate column names
	errDuplicateColumnName = errors.New("duplicate column name")

	// ErrEmptyData indicates that the uploaded data contains no records
	ErrEmptyData = errors.New("sqlpen: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("sqlpen: unsupported file format")

	// ErrNoSheets indicates a workbook without any sheets
	ErrNoSheets = errors.New("sqlpen: no sheets found in workbook")

	// ErrNoStatements indicates input with no executable SQL statements
	ErrNoStatements = errors.New("sqlpen: no statements to execute")

	// ErrDatabaseNotFound indicates the named database file does not exist
	ErrDatabaseNotFound = errors.New("sqlpen: database not found")

	// ErrDatabaseNameEmpty indicates a blank database name
	ErrDatabaseNameEmpty = errors.New("sqlpen: database name is empty")
)
