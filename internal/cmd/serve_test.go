package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := NewServeCommand()
	for _, flag := range []string{"listen", "static"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing --%s", flag)
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	setupHome(t)
	_, _, err := execute(t, "serve", "--listen", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.listen cannot be empty")
}
