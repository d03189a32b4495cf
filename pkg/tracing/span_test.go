package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "initialize", "fit-1")
	assert.Same(t, root, FromContext(ctx))

	_, normalize := Start(ctx, "normalize", "ignored")
	normalize.Set("documents", 3)
	normalize.End()
	_, fit := Start(ctx, "fit", "")
	fit.End()
	root.End()

	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "normalize", children[0].Name)
	assert.Equal(t, "fit-1", children[0].TraceID, "children inherit the root trace id")

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "span=initialize")
	assert.Contains(t, lines[1], "documents=3")
	assert.Contains(t, lines[2], "depth=1")
}

func TestFromContextEmpty(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
