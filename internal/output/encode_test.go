package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleDoc struct {
	Handler string   `json:"handler"`
	Include []string `json:"include,omitempty"`
}

func TestWriteDocument_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, sampleDoc{Handler: "_optimize/a/handler.main", Include: []string{"_optimize/a/**"}}, FormatYAML))

	assert.Equal(t, "handler: _optimize/a/handler.main\ninclude:\n- _optimize/a/**\n", buf.String())
}

func TestWriteDocument_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, sampleDoc{Handler: "h.main"}, FormatJSON))

	assert.JSONEq(t, `{"handler":"h.main"}`, buf.String())
}

func TestWriteDocument_TableRejected(t *testing.T) {
	err := WriteDocument(&bytes.Buffer{}, sampleDoc{}, FormatTable)
	assert.Error(t, err)
}
