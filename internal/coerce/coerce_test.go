package coerce

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want int64
	}{
		{"missing", nil, 0},
		{"null", json.RawMessage(`null`), 0},
		{"integer", json.RawMessage(`1500`), 1500},
		{"negative", json.RawMessage(`-3`), -3},
		{"padded", json.RawMessage(" 42 "), 42},
		{"true", json.RawMessage(`true`), 1},
		{"false", json.RawMessage(`false`), 0},
		{"float", json.RawMessage(`12.5`), 0},
		{"whole float", json.RawMessage(`12.0`), 0},
		{"exponent", json.RawMessage(`1e3`), 0},
		{"string", json.RawMessage(`"100"`), 0},
		{"object", json.RawMessage(`{"a":1}`), 0},
		{"array", json.RawMessage(`[1]`), 0},
		{"overflow", json.RawMessage(`99999999999999999999`), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.raw))
		})
	}
}

func TestNullableInt(t *testing.T) {
	assert.Nil(t, NullableInt(nil))
	assert.Nil(t, NullableInt(json.RawMessage(`null`)))
	assert.Nil(t, NullableInt(json.RawMessage(`12.5`)))
	assert.Nil(t, NullableInt(json.RawMessage(`"7"`)))

	v := NullableInt(json.RawMessage(`0`))
	require.NotNil(t, v)
	assert.Equal(t, int64(0), *v)

	v = NullableInt(json.RawMessage(`true`))
	require.NotNil(t, v)
	assert.Equal(t, int64(1), *v)
}

func TestAsymmetry_SameRawValue(t *testing.T) {
	// The zero path and the nullable path disagree only on non-integers.
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`"x"`)} {
		assert.Equal(t, int64(0), Int(raw))
		assert.Nil(t, NullableInt(raw))
	}

	raw := json.RawMessage(`250`)
	require.NotNil(t, NullableInt(raw))
	assert.Equal(t, Int(raw), *NullableInt(raw))
}

func TestNullableFloat(t *testing.T) {
	assert.Nil(t, NullableFloat(json.RawMessage(`null`)))
	f := NullableFloat(json.RawMessage(`120`))
	require.NotNil(t, f)
	assert.InDelta(t, 120.0, *f, 1e-9)
}

func TestString(t *testing.T) {
	assert.Equal(t, "Abyssal whip", String(json.RawMessage(`"Abyssal whip"`), "Unknown"))
	assert.Equal(t, "Unknown", String(nil, "Unknown"))
	assert.Equal(t, "Unknown", String(json.RawMessage(`null`), "Unknown"))
	assert.Equal(t, "", String(json.RawMessage(`12`), ""))
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(json.RawMessage(`true`)))
	assert.False(t, Bool(json.RawMessage(`false`)))
	assert.False(t, Bool(json.RawMessage(`"true"`)))
	assert.False(t, Bool(nil))
}

func TestPresentAndKey(t *testing.T) {
	assert.False(t, Present(nil))
	assert.False(t, Present(json.RawMessage(`null`)))
	assert.True(t, Present(json.RawMessage(`0`)))

	assert.False(t, Key(nil))
	assert.True(t, Key(json.RawMessage(`null`)))
}

func TestID(t *testing.T) {
	id, ok := ID("4151")
	assert.True(t, ok)
	assert.Equal(t, int64(4151), id)

	_, ok = ID("abc")
	assert.False(t, ok)
	_, ok = ID("")
	assert.False(t, ok)
}
