package sqlpen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Renderer is the boundary to an external schema-visualization tool.
// It consumes a database connection string and writes an image to
// outputPath. The core treats the renderer as opaque and does not
// inspect its output beyond the path.
type Renderer interface {
	Render(ctx context.Context, dsn, outputPath string) error
}

// DiagramService generates and caches schema diagrams for workspace
// databases, one PNG per database in the diagram directory.
type DiagramService struct {
	ws       *Workspace
	renderer Renderer
}

// NewDiagramService creates a DiagramService using the given renderer.
func NewDiagramService(ws *Workspace, renderer Renderer) *DiagramService {
	return &DiagramService{ws: ws, renderer: renderer}
}

// Path returns the diagram image path for a database name.
func (s *DiagramService) Path(name string) string {
	return filepath.Join(s.ws.diagramDir, name+".png")
}

// Ensure returns the diagram path for the named database, rendering it
// first when no cached image exists. The database must exist.
func (s *DiagramService) Ensure(ctx context.Context, name string) (string, error) {
	outputPath := s.Path(name)
	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	if !s.ws.Exists(name) {
		return "", fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
	}

	dsn := "sqlite:///" + s.ws.DatabasePath(name)
	if err := s.renderer.Render(ctx, dsn, outputPath); err != nil {
		return "", fmt.Errorf("sqlpen: failed to render diagram for %s: %w", name, err)
	}
	return outputPath, nil
}
