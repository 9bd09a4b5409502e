package helpers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPtr(t *testing.T) {
	v := "hello"
	p := ToPtr(v)
	require.NotNil(t, p)
	assert.Equal(t, "hello", *p)

	v = "changed"
	assert.Equal(t, "hello", *p)
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 3, Deref(ToPtr(3), 7))
	assert.Equal(t, 7, Deref[int](nil, 7))
}

func TestResult(t *testing.T) {
	ok := NewValueResult(42)
	assert.True(t, ok.Ok())
	assert.Equal(t, 42, ok.Unwrap())
	assert.Equal(t, 42, ok.ValueOr(0))

	boom := errors.New("boom")
	failed := NewErrorResult[int](boom)
	assert.False(t, failed.Ok())
	assert.Equal(t, 5, failed.ValueOr(5))
	assert.Panics(t, func() { failed.Unwrap() })
	assert.ErrorIs(t, failed.Error(), boom)
	assert.True(t, NewResult(1, nil).Ok())
}
