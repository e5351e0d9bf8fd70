package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_AbsAndRel(t *testing.T) {
	r := NewResolver("/srv/app/")

	assert.Equal(t, "/srv/app", r.Root())
	assert.Equal(t, filepath.Join("/srv/app", "_optimize", "a"), r.Abs("_optimize/a"))

	rel, err := r.Rel("/srv/app/node_modules/sharp")
	require.NoError(t, err)
	assert.Equal(t, "node_modules/sharp", rel)
}

func TestStripRelative(t *testing.T) {
	assert.Equal(t, "lib/x", StripRelative("./lib/x"))
	assert.Equal(t, "lib/x", StripRelative("lib/x"))
	assert.Equal(t, "../x", StripRelative("../x"))
	assert.True(t, IsRelative("./lib/x"))
	assert.False(t, IsRelative("lodash"))
}

func TestUnitFolder(t *testing.T) {
	assert.Equal(t, "_build/A", UnitFolder("_build", "A"))
	assert.Equal(t, "out/nested/A", UnitFolder("out/nested/", "A"))
}

func TestParseHandler(t *testing.T) {
	tests := []struct {
		ref     string
		module  string
		symbol  string
		dir     string
		wantErr bool
	}{
		{ref: "handlers/a.main", module: "handlers/a", symbol: "main", dir: "handlers"},
		{ref: "index.handler", module: "index", symbol: "handler", dir: ""},
		{ref: "src/api/users.v1.create", module: "src/api/users.v1", symbol: "create", dir: "src/api"},
		{ref: "nohandler", wantErr: true},
		{ref: ".main", wantErr: true},
		{ref: "handlers/a.", wantErr: true},
		{ref: "/abs/a.main", wantErr: true},
		{ref: "../outside/a.main", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			h, err := ParseHandler(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.module, h.Module)
			assert.Equal(t, tt.symbol, h.Symbol)
			assert.Equal(t, tt.dir, h.Dir())
			assert.Equal(t, tt.ref, h.String())
		})
	}
}

func TestHandler_RebaseRoundTrip(t *testing.T) {
	h, err := ParseHandler("handlers/a.main")
	require.NoError(t, err)

	rebased := h.Rebase("_build/A")

	assert.Equal(t, "_build/A/handlers/a.main", rebased.String())
	assert.Equal(t, "_build/A/handlers/a.js", rebased.File())
	assert.Equal(t, h.Symbol, rebased.Symbol)
}
