package apperror

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestParameterBindingFailureWrapsCause(t *testing.T) {
	cause := errors.New("invalid integer")
	err := ParameterBindingFailure("limit", cause)

	assert.Equal(t, err.Status, 400)
	assert.Equal(t, err.Kind, KindParameterBindingFailure)
	assert.Assert(t, errors.Is(err, cause))
}

func TestWithStatusOverridesDefault(t *testing.T) {
	err := New(KindFormParsingFailure, "bad form", nil).WithStatus(422)

	assert.Equal(t, err.Status, 422)
}

func TestIsCancellation(t *testing.T) {
	assert.Assert(t, IsCancellation(RequestCancelled()))
	assert.Assert(t, !IsCancellation(errors.New("other")))
}
