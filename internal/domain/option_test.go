package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOption_JSON(t *testing.T) {
	type wrapper struct {
		A Option[float64] `json:"a"`
		B Option[float64] `json:"b"`
	}

	data, err := json.Marshal(wrapper{A: Some(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var got wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":null}`), &got))
	v, ok := got.A.Get()
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.False(t, got.B.IsSome())

	// absent fields keep the zero value
	var empty wrapper
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.False(t, empty.A.IsSome())
	assert.False(t, empty.B.IsSome())
}

func TestOption_Accessors(t *testing.T) {
	assert.Equal(t, 3, Some(3).OrElse(7))
	assert.Equal(t, 7, None[int]().OrElse(7))
	assert.Nil(t, None[int]().Ptr())

	x := 4
	assert.Equal(t, 4, *FromPtr(&x).Ptr())
	assert.False(t, FromPtr[int](nil).IsSome())
}
