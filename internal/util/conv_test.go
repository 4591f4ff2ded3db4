package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustParseUint(t *testing.T) {
	assert.Equal(t, uint(42), MustParseUint("42"))
	assert.Equal(t, uint(0), MustParseUint("abc"))
	assert.Equal(t, uint(0), MustParseUint("-1"))
	assert.Equal(t, uint(0), MustParseUint(""))
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, ParseLimit("", 10, 100))
	assert.Equal(t, 10, ParseLimit("abc", 10, 100))
	assert.Equal(t, 10, ParseLimit("0", 10, 100))
	assert.Equal(t, 10, ParseLimit("-5", 10, 100))
	assert.Equal(t, 25, ParseLimit("25", 10, 100))
	assert.Equal(t, 100, ParseLimit("500", 10, 100))
}
