package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("not found")
	wrapped := sentinel.Wrap(fmt.Errorf("key %q", "a/b"))

	require.NoError(t, sentinel.Unwrap())
	assert.Equal(t, "not found", sentinel.Error())
	assert.Equal(t, `not found: key "a/b"`, wrapped.Error())
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(fmt.Errorf("outer: %w", wrapped), sentinel))
	assert.False(t, Is(wrapped, New("not found")))

	twice := wrapped.Wrapf("again %d", 2)
	assert.True(t, Is(twice, sentinel))

	var target *Error
	require.True(t, As(fmt.Errorf("outer: %w", twice), &target))
	assert.Equal(t, twice, target)
}
