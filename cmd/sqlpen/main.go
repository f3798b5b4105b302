// Command sqlpen is a command-line front end for the sqlpen playground
// core: it manages the database directory, ingests tabular files, and
// executes SQL batches against the stored databases.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqlpen/sqlpen"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "sqlpen",
		Short:         "File-backed SQL playground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default sqlpen.yaml)")
	root.PersistentFlags().String("data-dir", "", "directory holding database files")
	root.PersistentFlags().String("diagram-dir", "", "directory holding diagram images")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	root.AddCommand(
		newListCmd(&cfgFile),
		newCreateCmd(&cfgFile),
		newExecCmd(&cfgFile),
		newSchemaCmd(&cfgFile),
		newIngestCmd(&cfgFile),
	)
	return root
}

// openWorkspace loads configuration (flags win over env and file) and
// opens the workspace.
func openWorkspace(cmd *cobra.Command, cfgFile string) (*sqlpen.Workspace, error) {
	cfg, err := sqlpen.LoadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return sqlpen.NewWorkspace(cfg, sqlpen.WithLogger(slog.Default()))
}

func newListCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List databases in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, *cfgFile)
			if err != nil {
				return err
			}
			names, err := ws.ListDatabases()
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newCreateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty database if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, *cfgFile)
			if err != nil {
				return err
			}
			created, err := ws.CreateDatabase(args[0])
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created database %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "database %s already exists\n", args[0])
			}
			return nil
		},
	}
}

func newExecCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <database> <sql>",
		Short: "Execute a SQL batch against a database",
		Long: "Executes semicolon-separated SQL statements against the named " +
			"database. The first SELECT or WITH statement returns its rows and " +
			"ends the batch; a batch without one is committed as a whole.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, *cfgFile)
			if err != nil {
				return err
			}

			raw := strings.Join(args[1:], " ")

			// The CREATE DATABASE pseudo command never reaches the engine.
			if handled, created, err := ws.HandleCreateDatabase(raw); handled {
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintln(cmd.OutOrStdout(), "Database created successfully.")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Database already exists.")
				}
				return nil
			}

			res := sqlpen.NewExecutor(ws).ExecuteContext(cmd.Context(), args[0], raw)
			if res.IsError() {
				return fmt.Errorf("%s", res.Message)
			}
			if res.IsQuery() {
				renderRows(cmd, res)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

// renderRows prints a query result as a bordered text table.
func renderRows(cmd *cobra.Command, res sqlpen.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range res.Rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", len(res.Rows))
}

func newSchemaCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <database>",
		Short: "Show tables and columns of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, *cfgFile)
			if err != nil {
				return err
			}
			schema, err := ws.DescribeDatabase(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tables := make([]string, 0, len(schema))
			for name := range schema {
				tables = append(tables, name)
			}
			sort.Strings(tables)
			for _, name := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, strings.Join(schema[name], ", "))
			}
			return nil
		},
	}
}

func newIngestCmd(cfgFile *string) *cobra.Command {
	var sameDB bool

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest tabular files into databases",
		Long: "Ingests CSV, TSV, XLSX, Parquet (optionally gz/bz2/xz/zst " +
			"compressed) and prebuilt .sqlite files. With --same-db all files " +
			"are merged into one database named after the first file; otherwise " +
			"each file becomes its own database.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, *cfgFile)
			if err != nil {
				return err
			}

			files := make([]sqlpen.UploadedFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, sqlpen.UploadedFile{Name: path, Data: data})
			}

			failed := 0
			for _, report := range sqlpen.NewLoader(ws).Load(cmd.Context(), files, sameDB) {
				if report.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", report.File, report.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s.sqlite\n", report.File, report.Database)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sameDB, "same-db", false, "merge all files into one database")
	return cmd
}
