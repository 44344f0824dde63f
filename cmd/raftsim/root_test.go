package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["validate"])
}
