package sqlpen

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// sqliteBytes builds a real database file holding one table.
func sqliteBytes(t *testing.T, tableName string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.sqlite")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE " + tableName + " (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestLoaderMerged(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	files := []UploadedFile{
		{Name: "sales.csv", Data: []byte("id,amount\n1,10\n2,20\n3,30\n")},
		{Name: "returns.csv", Data: []byte("id,reason\n1,damaged\n")},
	}

	reports := NewLoader(ws).Load(context.Background(), files, true)
	require.Len(t, reports, 2)
	for _, report := range reports {
		require.NoError(t, report.Err)
		assert.Equal(t, "sales", report.Database)
	}
	assert.Equal(t, []string{"sales"}, reports[0].Tables)
	assert.Equal(t, []string{"returns"}, reports[1].Tables)

	// Both files land in one database named after the first file
	schema, err := ws.DescribeDatabase(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"sales":   {"id", "amount"},
		"returns": {"id", "reason"},
	}, schema)

	assert.EqualValues(t, 3, countRows(t, ws, "sales", "sales"))
	assert.EqualValues(t, 1, countRows(t, ws, "sales", "returns"))
}

func TestLoaderSeparate(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	files := []UploadedFile{
		{Name: "my-data.csv", Data: []byte("id,name\n1,a\n2,b\n")},
		{Name: "logs.tsv", Data: []byte("ts\tlevel\n100\tinfo\n")},
	}

	reports := NewLoader(ws).Load(context.Background(), files, false)
	require.Len(t, reports, 2)
	require.NoError(t, reports[0].Err)
	require.NoError(t, reports[1].Err)
	assert.Equal(t, "my_data", reports[0].Database)
	assert.Equal(t, "logs", reports[1].Database)

	// Each database holds exactly one table under the placeholder name
	for _, dbName := range []string{"my_data", "logs"} {
		schema, err := ws.DescribeDatabase(context.Background(), dbName)
		require.NoError(t, err)
		require.Len(t, schema, 1)
		assert.Contains(t, schema, placeholderTableName)
	}
	assert.EqualValues(t, 2, countRows(t, ws, "my_data", placeholderTableName))
}

func TestLoaderSeparateWorkbookKeepsFirstSheet(t *testing.T) {
	t.Parallel()

	workbook := excelize.NewFile()
	require.NoError(t, workbook.SetSheetName("Sheet1", "east"))
	require.NoError(t, workbook.SetSheetRow("east", "A1", &[]any{"id"}))
	require.NoError(t, workbook.SetSheetRow("east", "A2", &[]any{1}))
	_, err := workbook.NewSheet("west")
	require.NoError(t, err)
	require.NoError(t, workbook.SetSheetRow("west", "A1", &[]any{"id"}))
	require.NoError(t, workbook.SetSheetRow("west", "A2", &[]any{2}))
	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, workbook.Close())

	ws := newTestWorkspace(t)
	reports := NewLoader(ws).Load(context.Background(), []UploadedFile{
		{Name: "regions.xlsx", Data: buf.Bytes()},
	}, false)
	require.Len(t, reports, 1)
	require.NoError(t, reports[0].Err)
	assert.Equal(t, []string{placeholderTableName}, reports[0].Tables)

	schema, err := ws.DescribeDatabase(context.Background(), "regions")
	require.NoError(t, err)
	require.Len(t, schema, 1)
	assert.Contains(t, schema, placeholderTableName)
	assert.EqualValues(t, 1, countRows(t, ws, "regions", placeholderTableName))
}

func TestLoaderMergedWorkbookExpandsSheets(t *testing.T) {
	t.Parallel()

	workbook := excelize.NewFile()
	require.NoError(t, workbook.SetSheetName("Sheet1", "east-region"))
	require.NoError(t, workbook.SetSheetRow("east-region", "A1", &[]any{"id"}))
	require.NoError(t, workbook.SetSheetRow("east-region", "A2", &[]any{1}))
	_, err := workbook.NewSheet("west")
	require.NoError(t, err)
	require.NoError(t, workbook.SetSheetRow("west", "A1", &[]any{"id"}))
	require.NoError(t, workbook.SetSheetRow("west", "A2", &[]any{2}))
	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, workbook.Close())

	ws := newTestWorkspace(t)
	reports := NewLoader(ws).Load(context.Background(), []UploadedFile{
		{Name: "regions.xlsx", Data: buf.Bytes()},
	}, true)
	require.Len(t, reports, 1)
	require.NoError(t, reports[0].Err)
	assert.Equal(t, []string{"east_region", "west"}, reports[0].Tables)

	schema, err := ws.DescribeDatabase(context.Background(), "regions")
	require.NoError(t, err)
	assert.Len(t, schema, 2)
	assert.Contains(t, schema, "east_region")
	assert.Contains(t, schema, "west")
}

func TestLoaderReplacesExistingTable(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	loader := NewLoader(ws)

	first := []UploadedFile{{Name: "sales.csv", Data: []byte("id\n1\n2\n3\n")}}
	reports := loader.Load(context.Background(), first, true)
	require.NoError(t, reports[0].Err)
	assert.EqualValues(t, 3, countRows(t, ws, "sales", "sales"))

	second := []UploadedFile{{Name: "sales.csv", Data: []byte("id,note\n9,x\n")}}
	reports = loader.Load(context.Background(), second, true)
	require.NoError(t, reports[0].Err)

	schema, err := ws.DescribeDatabase(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "note"}, schema["sales"])
	assert.EqualValues(t, 1, countRows(t, ws, "sales", "sales"))
}

func TestLoaderCopiesPrebuiltDatabase(t *testing.T) {
	t.Parallel()

	data := sqliteBytes(t, "inventory")

	ws := newTestWorkspace(t)
	reports := NewLoader(ws).Load(context.Background(), []UploadedFile{
		{Name: "shop.sqlite", Data: data},
	}, false)
	require.Len(t, reports, 1)
	require.NoError(t, reports[0].Err)
	assert.Equal(t, "shop", reports[0].Database)

	// The file is copied verbatim, never parsed or rewritten
	stored, err := os.ReadFile(ws.DatabasePath("shop"))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	schema, err := ws.DescribeDatabase(context.Background(), "shop")
	require.NoError(t, err)
	assert.Contains(t, schema, "inventory")
}

func TestLoaderPerFileIsolation(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	files := []UploadedFile{
		{Name: "good.csv", Data: []byte("id\n1\n")},
		{Name: "notes.txt", Data: []byte("not tabular")},
		{Name: "also-good.csv", Data: []byte("id\n2\n")},
	}

	reports := NewLoader(ws).Load(context.Background(), files, false)
	require.Len(t, reports, 3)
	assert.NoError(t, reports[0].Err)
	assert.ErrorIs(t, reports[1].Err, ErrUnsupportedFormat)
	assert.NoError(t, reports[2].Err)

	// Failure in the middle file leaves its siblings intact
	assert.True(t, ws.Exists("good"))
	assert.True(t, ws.Exists("also_good"))
}

func TestLoaderEmptyInput(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	assert.Nil(t, NewLoader(ws).Load(context.Background(), nil, true))
}
