// Package sqlpen provides a file-backed SQL playground core.
// It consolidates uploaded tabular files (CSV, TSV, Excel workbooks,
// Parquet, and prebuilt SQLite databases, optionally compressed) into
// SQLite database files held in a single data directory, and executes
// free-form multi-statement SQL against those databases.
//
// The package is built around four collaborators:
//
//   - Workspace: manages the database directory (listing, creation,
//     the "CREATE DATABASE" pseudo command).
//   - Loader: ingests uploaded files into databases, either merged
//     into one database or one database per file.
//   - Executor: runs semicolon-separated SQL batches against a named
//     database and classifies the outcome.
//   - DiagramService: the boundary to an external schema-visualization
//     renderer that turns a database into a PNG.
//
// All state lives in the data directory; the types themselves are
// stateless with respect to anything but their explicit arguments.
// The tooling is single-session: each Executor call opens its own
// connection, and there is no protection against concurrent writers
// targeting the same database file.
//
// Example usage:
//
//	ws, err := sqlpen.NewWorkspace(sqlpen.Config{DataDir: "data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	loader := sqlpen.NewLoader(ws)
//	reports := loader.Load(ctx, files, true) // merge into one database
//	for _, r := range reports {
//		if r.Err != nil {
//			log.Printf("skipped %s: %v", r.File, r.Err)
//		}
//	}
//
//	exec := sqlpen.NewExecutor(ws)
//	res := exec.ExecuteContext(ctx, "sales", "SELECT * FROM sales")
//	if res.IsQuery() {
//		fmt.Println(res.Columns, len(res.Rows))
//	} else {
//		fmt.Println(res.Message)
//	}
package sqlpen
