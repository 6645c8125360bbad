package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNestedString(t *testing.T) {
	data, err := ParseJSON(`{"a": {"b": {"c": "value"}, "n": 1}}`)
	require.NoError(t, err)

	got, err := GetNestedString(data, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	_, err = GetNestedString(data, "a", "n")
	assert.Error(t, err)

	_, err = GetNestedString(data, "a", "missing", "c")
	assert.Error(t, err)

	_, err = GetNestedString(data)
	assert.Error(t, err)
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(map[string]int{"Days": 30})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Days\": 30\n}", out)
}

func TestRegions(t *testing.T) {
	assert.True(t, IsValidRegion("ap-northeast-2"))
	assert.False(t, IsValidRegion("moon-base-1"))
	assert.True(t, IsValidRegion(DefaultRegion))

	location, ok := PricingLocation("eu-west-1")
	assert.True(t, ok)
	assert.Equal(t, "EU (Ireland)", location)

	_, ok = PricingLocation("moon-base-1")
	assert.False(t, ok)
}

func TestSafeDeref(t *testing.T) {
	name := "bucket"
	assert.Equal(t, "bucket", SafeDeref(&name))
	assert.Equal(t, "", SafeDeref(nil))

	now := time.Now()
	assert.Equal(t, now, SafeTime(&now))
	assert.True(t, SafeTime(nil).IsZero())
}
