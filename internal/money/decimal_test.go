package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositive_RejectsZeroAndNegative(t *testing.T) {
	_, err := ParsePositive("0")
	assert.ErrorIs(t, err, ErrNotPositive)

	_, err = ParsePositive("-5")
	assert.ErrorIs(t, err, ErrNotPositive)

	v, err := ParsePositive("5")
	require.NoError(t, err)
	assert.Equal(t, "5", v.String())
}

func TestArithmetic_NoFloatRoundingDrift(t *testing.T) {
	a, _ := Parse("0.1")
	b, _ := Parse("0.2")
	assert.Equal(t, "0.3", a.Add(b).String())
}

func TestJSON_RoundTripsAsQuotedString(t *testing.T) {
	v, _ := Parse("12.50")
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"12.5"`, string(b))

	var out Decimal
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, v.Equal(out))
}

func TestMin(t *testing.T) {
	a, _ := Parse("3")
	b, _ := Parse("7")
	assert.Equal(t, "3", Min(a, b).String())
	assert.Equal(t, "3", Min(b, a).String())
}
