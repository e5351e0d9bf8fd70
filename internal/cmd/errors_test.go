package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/optimize/internal/cmdtypes"
	oerrors "github.com/opmodel/optimize/internal/errors"
)

func TestFail(t *testing.T) {
	assert.NoError(t, fail("x", nil))

	err := fail("loading", oerrors.NewNotFoundError("no manifest", "/svc", ""))
	var exitErr *cmdtypes.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitNotFound, exitErr.Code)
	assert.True(t, exitErr.Printed)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)

	err = fail("x", errors.New("plain"))
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitGeneralError, exitErr.Code)
}
