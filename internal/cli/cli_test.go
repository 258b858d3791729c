package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIntegrateRequiresProject(t *testing.T) {
	require.NoError(t, integrateCmd.Flags().Set("project", ""))
	require.NoError(t, integrateCmd.Flags().Set("user", "user-1"))

	err := runIntegrate(integrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project")
}

func TestRunIntegrateRequiresUser(t *testing.T) {
	require.NoError(t, integrateCmd.Flags().Set("project", "team-1"))
	require.NoError(t, integrateCmd.Flags().Set("user", ""))

	err := runIntegrate(integrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestRunMembersRequiresProject(t *testing.T) {
	require.NoError(t, membersCmd.Flags().Set("project", ""))

	err := runMembers(membersCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"integrate", "projects", "members", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
