package discovery

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		in      string
		pattern string
	}{
		{"order", `^order\.dot$`},
		{"v1.2", `^v1\.2\.dot$`},
		{"order/line item", `^order_line_item-[0-9a-f]{8}\.dot$`},
		{"", `^_-[0-9a-f]{8}\.dot$`},
		{"..", `^_-[0-9a-f]{8}\.dot$`},
	}
	for _, tt := range tests {
		assert.Regexp(t, tt.pattern, FileName(tt.in), "input %q", tt.in)
	}
}

func TestFileName_DistinctTypes(t *testing.T) {
	types := []string{"sales order", "sales/order", "sales_order", "", "_", ".", ".."}
	seen := make(map[string]string, len(types))
	for _, typ := range types {
		name := FileName(typ)
		if prev, dup := seen[name]; dup {
			t.Fatalf("%q and %q both map to %s", prev, typ, name)
		}
		seen[name] = typ
	}
	assert.Equal(t, FileName("sales order"), FileName("sales order"), "names are stable")
}

func TestDOTVisualizer_SanitizedTypesKeepSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	v := NewDOTVisualizer(dir, zaptest.NewLogger(t).Sugar())
	g := discover(t, NewOCDFGDiscoverer(1, nil), orderLog())
	ctx := context.Background()

	require.NoError(t, v.Visualize(ctx, "sales order", g))
	require.NoError(t, v.Visualize(ctx, "sales/order", g))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(filepath.Join(dir, FileName("sales/order")))
	require.NoError(t, err)
	assert.Contains(t, string(data), `digraph "sales/order"`)
}

func TestWriteDOT(t *testing.T) {
	g := discover(t, NewOCDFGDiscoverer(1, nil), orderLog())

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, `say "hi"`, g))
	out := buf.String()

	assert.Contains(t, out, `digraph "say \"hi\"" {`)
	assert.Contains(t, out, `"act:pick" [label="pick (2)"];`)
	assert.Contains(t, out, `"act:create" -> "act:pick"`)
	assert.Contains(t, out, `"start:order" -> "act:create"`)
	assert.Contains(t, out, `"act:ship" -> "end:item"`)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("}\n")))
}

func TestDOTVisualizer_Visualize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	v := NewDOTVisualizer(dir, zaptest.NewLogger(t).Sugar())
	g := discover(t, NewOCDFGDiscoverer(1, nil), orderLog())

	require.NoError(t, v.Visualize(context.Background(), "order line", g))

	data, err := os.ReadFile(filepath.Join(dir, FileName("order line")))
	require.NoError(t, err)
	assert.Contains(t, string(data), `digraph "order line"`)
}

func TestDOTVisualizer_UnsupportedModel(t *testing.T) {
	v := NewDOTVisualizer(t.TempDir(), nil)

	err := v.Visualize(context.Background(), "order", map[string]int{})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
