package schemex_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/schemex"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := schemex.Errorf(schemex.ENOTFOUND, "result for %q not found", "https://example.com")

	assert.Equal(t, schemex.ENOTFOUND, schemex.ErrorCode(err))
	assert.Equal(t, "result for \"https://example.com\" not found", schemex.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, schemex.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, schemex.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("saving: %w", schemex.Errorf(schemex.EINVALID, "bad schema"))

	assert.Equal(t, schemex.EINVALID, schemex.ErrorCode(err))
	assert.Equal(t, "bad schema", schemex.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, schemex.EINTERNAL, schemex.ErrorCode(err))
	assert.Equal(t, "Internal error", schemex.ErrorMessage(err))
}
