package callbacks

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/render/dungeon"
)

// DefaultSnapshotPrefix names iteration snapshots.
const DefaultSnapshotPrefix = "iter"

// SnapshotWriter renders the layout of every outer iteration to
// <dir>/<prefix>_<run>_<iteration>.svg. It works on a clone of the model so
// the solver's model only changes when a pass finishes.
type SnapshotWriter struct {
	model  *model.Model
	dir    string
	prefix string
	svg    []dungeon.SVGOption
	logger *log.Logger

	written int
	err     error
}

// SnapshotOption configures a SnapshotWriter.
type SnapshotOption func(*SnapshotWriter)

// WithPrefix overrides [DefaultSnapshotPrefix].
func WithPrefix(p string) SnapshotOption { return func(w *SnapshotWriter) { w.prefix = p } }

// WithSVGOptions passes options to the dungeon renderer.
func WithSVGOptions(opts ...dungeon.SVGOption) SnapshotOption {
	return func(w *SnapshotWriter) { w.svg = opts }
}

// WithSnapshotLogger sets the logger that receives write failures.
func WithSnapshotLogger(l *log.Logger) SnapshotOption {
	return func(w *SnapshotWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewSnapshotWriter validates dir and the prefix and creates dir.
func NewSnapshotWriter(m *model.Model, dir string, opts ...SnapshotOption) (*SnapshotWriter, error) {
	w := &SnapshotWriter{
		model:  m.Clone(),
		dir:    dir,
		prefix: DefaultSnapshotPrefix,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := errors.ValidateOutputDir(dir); err != nil {
		return nil, err
	}
	if err := errors.ValidateFilenamePrefix(w.prefix); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create snapshot directory")
	}
	return w, nil
}

// Path returns the snapshot file for a run and iteration.
func (w *SnapshotWriter) Path(run, iteration int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%d_%d.svg", w.prefix, run, iteration))
}

// Read writes one snapshot. It has the signature of a solver reader.
// Failures are logged and kept; see [SnapshotWriter.Err].
func (w *SnapshotWriter) Read(x []float64, run, iteration int) {
	if err := w.write(x, run, iteration); err != nil {
		w.logger.Warn("snapshot failed", "run", run, "iteration", iteration, "err", err)
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.written++
}

func (w *SnapshotWriter) write(x []float64, run, iteration int) error {
	if err := w.model.SetPositions(model.PositionsFromVariables(x)); err != nil {
		return err
	}
	svg, err := dungeon.RenderSVG(w.model, w.svg...)
	if err != nil {
		return err
	}
	return os.WriteFile(w.Path(run, iteration), svg, 0o644)
}

// Written returns the number of snapshots written.
func (w *SnapshotWriter) Written() int { return w.written }

// Err returns the first write failure, if any.
func (w *SnapshotWriter) Err() error { return w.err }
