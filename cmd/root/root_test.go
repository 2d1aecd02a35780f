package root_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"psheikomaniac/club-ledger/cmd/root"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "club-ledger", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "fines")
	assert.Contains(t, root.Cmd.Long, "per-member ledger")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRun)
}

func TestRootCommand_Flags(t *testing.T) {
	// Flags may already be registered by an earlier Init() call.
	databaseFlag := root.Cmd.PersistentFlags().Lookup("database")
	if databaseFlag != nil {
		assert.Equal(t, "d", databaseFlag.Shorthand)
		assert.Equal(t, "", databaseFlag.DefValue)
		assert.NotEmpty(t, databaseFlag.Usage)
	}
}

func TestRootCommand_Run(t *testing.T) {
	cmd := &cobra.Command{}

	assert.NotPanics(t, func() {
		root.Cmd.Run(cmd, []string{})
	})
}

func TestGlobalVariables_Initialization(t *testing.T) {
	assert.NotNil(t, root.Log)
	assert.NotNil(t, root.Cmd)
}
