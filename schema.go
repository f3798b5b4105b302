package sqlpen

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// InspectSchema returns a mapping from table name to the ordered column
// names of the database file at dbPath. A missing file yields an empty
// mapping, not an error; the inspector never creates files.
func InspectSchema(ctx context.Context, dbPath string) (map[string][]string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("sqlpen: failed to stat database %s: %w", dbPath, err)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlpen: failed to open database %s: %w", dbPath, err)
	}
	defer func() {
		_ = db.Close() // Ignore close error; read-only inspection
	}()

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	schema := make(map[string][]string, len(names))
	for _, name := range names {
		columns, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		schema[name] = columns
	}
	return schema, nil
}

// tableNames lists user tables from the system catalog.
func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		return nil, fmt.Errorf("sqlpen: failed to list tables: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlpen: failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableColumns returns the column names of a table in declared order.
func tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, tableName))
	if err != nil {
		return nil, fmt.Errorf("sqlpen: failed to read columns of %s: %w", tableName, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			typeName  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typeName, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("sqlpen: failed to scan column of %s: %w", tableName, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// DescribeDatabase returns the schema of the named database, or an
// empty mapping when no database file exists for the name.
func (w *Workspace) DescribeDatabase(ctx context.Context, name string) (map[string][]string, error) {
	if !w.Exists(name) {
		return map[string][]string{}, nil
	}
	return InspectSchema(ctx, w.DatabasePath(name))
}
