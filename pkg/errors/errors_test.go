package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "location not found")
	wrapped := fmt.Errorf("delete node: %w", base)

	require.Equal(t, CodeNotFound, CodeOf(wrapped))
	require.True(t, IsCode(wrapped, CodeNotFound))
	require.False(t, IsCode(wrapped, CodeInvalid))
	require.Equal(t, "location not found", MessageOf(wrapped))
}

func TestMessageOfPlainError(t *testing.T) {
	err := fmt.Errorf("boom")
	require.Equal(t, CodeUnknown, CodeOf(err))
	require.Equal(t, "unexpected error", MessageOf(err))
}

func TestWrapNil(t *testing.T) {
	err := Wrap(nil, CodeInternal, "insert failed")
	require.Nil(t, err.Err)
	require.Equal(t, "internal: insert failed", err.Error())
}

func TestWithMeta(t *testing.T) {
	err := Newf(CodeInvalid, "unknown column %q", "color").WithMeta("table", "units")
	require.Equal(t, "units", err.Meta["table"])
	require.Equal(t, `unknown column "color"`, err.Message)
}
