package engineerrors

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFindsDirectKind(t *testing.T) {
	err := TableNotFound.New("users")
	kind, ok := Classify(err)
	require.True(t, ok)
	assert.Equal(t, TableNotFound, kind)
}

func TestClassifyUnwrapsPkgErrorsWrap(t *testing.T) {
	err := pkgerrors.Wrap(DivisionByZero.New(), "evaluating expression")
	kind, ok := Classify(err)
	require.True(t, ok)
	assert.Equal(t, DivisionByZero, kind)
}

func TestClassifyRejectsUnrelatedError(t *testing.T) {
	_, ok := Classify(errors.New("boom"))
	assert.False(t, ok)
}
