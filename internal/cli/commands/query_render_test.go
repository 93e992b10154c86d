package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/canvas"
)

func sampleResult() *canvas.Result {
	return &canvas.Result{
		Columns: []string{"name", "total"},
		Rows: [][]any{
			{"ada", int64(3)},
			{"grace, phd", nil},
		},
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "table"))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, &canvas.Result{Columns: []string{"n"}, Rows: [][]any{}}, "table"))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "json"))

	out := buf.String()
	assert.Contains(t, out, `"name": "ada"`)
	assert.Contains(t, out, `"total": 3`)
	assert.Contains(t, out, `"total": null`)
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,total", lines[0])
	assert.Equal(t, "ada,3", lines[1])
	// Comma in the value forces quoting.
	assert.Equal(t, `"grace, phd",NULL`, lines[2])
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, sampleResult(), "md"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| name | total |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| ada | 3 |", lines[2])
}

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, escapeCSV(tt.in), "escapeCSV(%q)", tt.in)
	}
}
