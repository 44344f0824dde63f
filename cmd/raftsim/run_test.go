package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitKV(t *testing.T) {
	key, value := splitKV("a=b")
	assert.Equal(t, "a", key)
	assert.Equal(t, "b", value)

	key, value = splitKV("novalue")
	assert.Equal(t, "novalue", key)
	assert.Empty(t, value)

	key, value = splitKV("k=v=extra")
	assert.Equal(t, "k", key)
	assert.Equal(t, "v=extra", value)
}
