package sqlpen

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// placeholderTableName is the table name used in separate mode. Merge
// mode derives table names from file and sheet names; separate mode
// historically used this fixed placeholder instead. The inconsistency
// is kept for compatibility with existing playground databases.
const placeholderTableName = "table_name"

// FileReport describes the outcome of ingesting one uploaded file.
type FileReport struct {
	// File is the original upload name.
	File string
	// Database is the database the file was written to (without extension).
	Database string
	// Tables lists the tables created or replaced, in write order.
	Tables []string
	// Err is set when this file failed; sibling files are unaffected.
	Err error
}

// Loader ingests uploaded files into workspace databases.
type Loader struct {
	ws     *Workspace
	logger *slog.Logger
}

// NewLoader creates a Loader bound to the workspace.
func NewLoader(ws *Workspace) *Loader {
	return &Loader{ws: ws, logger: ws.logger}
}

// Load persists the uploaded files and returns one report per file, in
// input order. Files are processed strictly sequentially; a failure in
// one file is captured in its report and does not abort the others.
//
// With sameDB true (merge mode) the database name is derived from the
// first file's name; every file's tables go into that database, each
// write replacing any existing table of the same name. Workbook sheets
// become separate tables named after the normalized sheet names.
//
// With sameDB false (separate mode) each file becomes its own database
// holding exactly one table with a fixed placeholder name; workbooks
// contribute only their first sheet.
//
// Prebuilt database files are copied byte-for-byte into the data
// directory under their own name in both modes; they are never parsed
// or merged.
func (l *Loader) Load(ctx context.Context, files []UploadedFile, sameDB bool) []FileReport {
	if len(files) == 0 {
		return nil
	}
	if sameDB {
		return l.loadMerged(ctx, files)
	}
	return l.loadSeparate(ctx, files)
}

// loadMerged writes every file's tables into one database named after
// the first file.
func (l *Loader) loadMerged(ctx context.Context, files []UploadedFile) []FileReport {
	dbName := nameFromFile(files[0].Name)

	reports := make([]FileReport, 0, len(files))
	for _, f := range files {
		var report FileReport
		if f.Kind() == FileKindSQLite {
			report = l.copyDatabaseFile(f)
		} else {
			report = l.writeTables(ctx, f, dbName, nil)
		}
		reports = append(reports, report)
	}
	return reports
}

// loadSeparate writes each file into its own database with a single
// placeholder-named table.
func (l *Loader) loadSeparate(ctx context.Context, files []UploadedFile) []FileReport {
	reports := make([]FileReport, 0, len(files))
	for _, f := range files {
		var report FileReport
		if f.Kind() == FileKindSQLite {
			report = l.copyDatabaseFile(f)
		} else {
			rename := func(tables []*table) []*table {
				if len(tables) == 0 {
					return tables
				}
				// First sheet/table only, under the fixed placeholder name
				first := tables[0]
				return []*table{newTable(placeholderTableName, first.header, first.records)}
			}
			report = l.writeTables(ctx, f, nameFromFile(f.Name), rename)
		}
		reports = append(reports, report)
	}
	return reports
}

// writeTables parses one upload and writes its tables into the named
// database. An optional reshape hook adjusts the parsed tables before
// writing (separate mode uses it to keep only a renamed first table).
func (l *Loader) writeTables(ctx context.Context, f UploadedFile, dbName string, reshape func([]*table) []*table) FileReport {
	report := FileReport{File: f.Name, Database: dbName}

	tables, err := f.tables()
	if err != nil {
		report.Err = err
		l.logger.Warn("failed to parse upload", "file", f.Name, "error", err)
		return report
	}
	if reshape != nil {
		tables = reshape(tables)
	}

	db, err := sql.Open(driverName, l.ws.DatabasePath(dbName))
	if err != nil {
		report.Err = fmt.Errorf("failed to open database %s: %w", dbName, err)
		return report
	}
	defer func() {
		_ = db.Close() // Ignore close error; the write owns the connection
	}()

	for _, t := range tables {
		if err := writeTable(ctx, db, t); err != nil {
			report.Err = err
			l.logger.Warn("failed to write table", "file", f.Name, "table", t.name, "error", err)
			return report
		}
		report.Tables = append(report.Tables, t.name)
	}

	l.logger.Info("ingested file", "file", f.Name, "database", dbName, "tables", len(report.Tables))
	return report
}

// copyDatabaseFile copies a prebuilt database upload verbatim into the
// data directory under its own name.
func (l *Loader) copyDatabaseFile(f UploadedFile) FileReport {
	report := FileReport{
		File:     f.Name,
		Database: strings.TrimSuffix(filepath.Base(f.Name), extSQLite),
	}

	target := filepath.Join(l.ws.DataDir(), filepath.Base(f.Name))
	if err := os.WriteFile(target, f.Data, 0o644); err != nil {
		report.Err = fmt.Errorf("failed to save database file %s: %w", f.Name, err)
		return report
	}

	l.logger.Info("saved database file", "file", f.Name)
	return report
}
