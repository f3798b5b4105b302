package sqlpen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// createDatabasePrefix is the literal pseudo-command prefix. It is matched
// as text, not parsed as SQL; the storage engine never sees it.
const createDatabasePrefix = "create database"

// Workspace manages the directory holding all database files and the
// directory holding generated schema diagrams.
type Workspace struct {
	dataDir    string
	diagramDir string
	logger     *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithLogger sets the logger used by the workspace and the services
// bound to it. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// NewWorkspace creates a Workspace for the configured directories,
// creating them if they do not exist.
func NewWorkspace(cfg Config, opts ...WorkspaceOption) (*Workspace, error) {
	cfg = cfg.withDefaults()

	w := &Workspace{
		dataDir:    cfg.DataDir,
		diagramDir: cfg.DiagramDir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range []string{w.dataDir, w.diagramDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlpen: failed to create directory %s: %w", dir, err)
		}
	}
	return w, nil
}

// DataDir returns the directory holding the database files.
func (w *Workspace) DataDir() string {
	return w.dataDir
}

// DatabasePath returns the file path for a database name.
func (w *Workspace) DatabasePath(name string) string {
	return filepath.Join(w.dataDir, name+extSQLite)
}

// Exists reports whether a database file exists for the name.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.DatabasePath(name))
	return err == nil
}

// ListDatabases returns the names (without extension) of all database
// files in the data directory. Order is not specified.
func (w *Workspace) ListDatabases() ([]string, error) {
	entries, err := os.ReadDir(w.dataDir)
	if err != nil {
		return nil, fmt.Errorf("sqlpen: failed to read data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extSQLite) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), extSQLite))
	}
	return names, nil
}

// CreateDatabase creates an empty database file for name if none
// exists and reports whether a file was created. No schema is written;
// an empty file is a valid, schema-less SQLite database.
func (w *Workspace) CreateDatabase(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, ErrDatabaseNameEmpty
	}

	f, err := os.OpenFile(w.DatabasePath(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("sqlpen: failed to create database %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("sqlpen: failed to create database %s: %w", name, err)
	}

	w.logger.Info("created database", "name", name)
	return true, nil
}

// ParseCreateDatabase recognizes the "CREATE DATABASE <name>[;]" pseudo
// command. The match is a literal case-insensitive prefix check; the
// name is the third whitespace-separated token with a trailing
// semicolon stripped. The identifier is not validated further.
func ParseCreateDatabase(raw string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), createDatabasePrefix) {
		return "", false
	}

	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return "", false
	}

	name := strings.TrimSuffix(fields[2], ";")
	if name == "" {
		return "", false
	}
	return name, true
}

// HandleCreateDatabase executes raw as a CREATE DATABASE pseudo command
// if it is one. The first return value reports whether the text was
// recognized as the pseudo command; the second whether a database file
// was actually created.
func (w *Workspace) HandleCreateDatabase(raw string) (handled bool, created bool, err error) {
	name, ok := ParseCreateDatabase(raw)
	if !ok {
		return false, false, nil
	}

	created, err = w.CreateDatabase(name)
	return true, created, err
}
