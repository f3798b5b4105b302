package sqlpen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// writeTable persists a parsed table into db with replace semantics:
// any existing table of the same name is dropped first. The drop,
// create, and inserts run in one transaction so a failed write leaves
// the previous table intact.
func writeTable(ctx context.Context, db *sql.DB, t *table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for table %s: %w", t.name, err)
	}

	if err := replaceTable(ctx, tx, t); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", t.name, err)
	}
	return nil
}

func replaceTable(ctx context.Context, tx *sql.Tx, t *table) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, t.name)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", t.name, err)
	}

	if _, err := tx.ExecContext(ctx, buildCreateTableQuery(t)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.name, err)
	}

	if len(t.records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, buildInsertQuery(t))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for table %s: %w", t.name, err)
	}
	defer func() {
		_ = stmt.Close() // Ignore close error during statement cleanup
	}()

	width := len(t.header)
	for _, rec := range t.records {
		values := make([]any, width)
		for i := range width {
			if i < len(rec) {
				values[i] = rec[i]
			} else {
				values[i] = "" // Pad short records
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert record into table %s: %w", t.name, err)
		}
	}
	return nil
}

// buildCreateTableQuery constructs a CREATE TABLE query with the
// inferred column types.
func buildCreateTableQuery(t *table) string {
	columns := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		columns = append(columns, fmt.Sprintf(`"%s" %s`, col.Name, col.Type.string()))
	}
	return fmt.Sprintf(`CREATE TABLE "%s" (%s)`, t.name, strings.Join(columns, ", "))
}

// buildInsertQuery constructs a positional INSERT query for the table.
func buildInsertQuery(t *table) string {
	placeholders := make([]string, len(t.header))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, t.name, strings.Join(placeholders, ", "))
}
