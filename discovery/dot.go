package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"hydra/core"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// ErrUnsupportedModel is returned when a model is not an *OCDFG
var ErrUnsupportedModel = errors.New("unsupported model type")

// palette colors object types in a stable order
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// DOTVisualizer writes one Graphviz file per object type into a directory.
type DOTVisualizer struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewDOTVisualizer creates a visualizer writing into dir. The directory is
// created on first use.
func NewDOTVisualizer(dir string, logger *zap.SugaredLogger) *DOTVisualizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DOTVisualizer{dir: dir, logger: logger}
}

// Visualize renders the model of one object type to <dir>/<type>.dot.
func (v *DOTVisualizer) Visualize(ctx context.Context, objectType string, model core.Model) error {
	g, ok := model.(*OCDFG)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedModel, model)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(v.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(v.dir, FileName(objectType))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteDOT(f, objectType, g); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	v.logger.Infow("OC-DFG written", "object_type", objectType, "path", path)
	return nil
}

// FileName returns the DOT file name used for an object type. Names that
// had to be sanitized get a hash of the raw type appended, so distinct object
// types never share a file.
func FileName(objectType string) string {
	name := unsafeFileChars.ReplaceAllString(objectType, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	if name != objectType {
		name = fmt.Sprintf("%s-%08x", name, uint32(xxhash.Sum64String(objectType)))
	}
	return name + ".dot"
}

// WriteDOT renders g as a Graphviz digraph. Edges of each object type get
// their own color; start and end markers are drawn per object type.
func WriteDOT(w io.Writer, title string, g *OCDFG) error {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", quote(title))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\"];\n")

	activities := make([]string, 0, len(g.Activities))
	for act := range g.Activities {
		activities = append(activities, act)
	}
	sort.Strings(activities)
	for _, act := range activities {
		fmt.Fprintf(&b, "  %s [label=%s];\n", quote("act:"+act), quote(fmt.Sprintf("%s (%d)", act, g.Activities[act])))
	}

	for i, objectType := range g.ObjectTypes {
		p := g.Perspectives[objectType]
		color := palette[i%len(palette)]
		startNode := quote("start:" + objectType)
		endNode := quote("end:" + objectType)

		fmt.Fprintf(&b, "  %s [shape=circle, label=%s, color=%q, fontcolor=%q];\n", startNode, quote(objectType), color, color)
		fmt.Fprintf(&b, "  %s [shape=doublecircle, label=\"\", color=%q];\n", endNode, color)

		for _, act := range sortedKeys(p.StartActivities) {
			fmt.Fprintf(&b, "  %s -> %s [color=%q, label=\"%d\"];\n", startNode, quote("act:"+act), color, p.StartActivities[act])
		}
		for _, e := range p.Edges {
			fmt.Fprintf(&b, "  %s -> %s [color=%q, label=\"%d\"];\n", quote("act:"+e.Source), quote("act:"+e.Target), color, e.EventCouples)
		}
		for _, act := range sortedKeys(p.EndActivities) {
			fmt.Fprintf(&b, "  %s -> %s [color=%q, label=\"%d\"];\n", quote("act:"+act), endNode, color, p.EndActivities[act])
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// quote produces a DOT double-quoted ID
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
