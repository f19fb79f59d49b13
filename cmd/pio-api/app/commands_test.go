package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "pio-api", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "sync-lib")
	assert.Contains(t, names, "process-pending")
	assert.Contains(t, names, "rotate-dlstats")
	assert.Contains(t, names, "cleanup-versions")
	assert.Contains(t, names, "delete-lib")
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "version")
}

func TestOperationalCommandsRequireConfig(t *testing.T) {
	for _, sub := range NewRootCmd().Commands() {
		switch sub.Name() {
		case "sync", "sync-lib", "process-pending", "rotate-dlstats",
			"cleanup-versions", "delete-lib":
			assert.NotNil(t, sub.Flags().Lookup("config"), sub.Name())
		}
	}
}
