package validators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCustomTags(t *testing.T) {
	type req struct {
		Type string  `json:"type" validate:"required,nodetype"`
		X    float64 `json:"x" validate:"finite"`
	}
	v := New()
	require.Same(t, v, New())

	require.NoError(t, v.Struct(req{Type: "unit", X: 10}))

	err := v.Struct(req{Type: "rack", X: 1})
	require.Error(t, err)
	require.Equal(t, "type must be one of: location unit equipment", Message(err))

	err = v.Struct(req{Type: "location", X: math.Inf(1)})
	require.Equal(t, "x failed finite", Message(err))

	err = v.Struct(req{})
	require.Equal(t, "type is required", Message(err))
}
