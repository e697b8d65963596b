package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeText, ModeText},
		{ModeMarkdown, ModeMarkdown},
		{ModeJSON, ModeJSON},
		// A bytes.Buffer is not a terminal, so auto resolves to markdown.
		{ModeAuto, ModeMarkdown},
		{Mode("bogus"), ModeMarkdown},
		{Mode(""), ModeMarkdown},
	}

	for _, tt := range tests {
		r := NewRenderer(&buf, &buf, tt.mode)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode %q", tt.mode)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.JSON(CompileOutput{SQL: "SELECT 1", Warnings: []string{"w"}}))

	var out CompileOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "SELECT 1", out.SQL)
	assert.Equal(t, []string{"w"}, out.Warnings)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "## Sub", FormatHeader(2, "Sub"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
	assert.Equal(t, "**Key:** value", FormatKeyValue("Key", "value"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}

func TestRenderTable_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)

	RenderTable(r, []string{"From", "To"}, [][]string{{"customer", "orders"}})

	out := buf.String()
	assert.Contains(t, out, "From")
	assert.Contains(t, out, "customer")
	assert.Contains(t, out, "|")
}
