package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not found under %q", name, parent.Name())
	return nil
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()

	epo := findCommand(t, root, "epo")
	findCommand(t, epo, "fetch")
	findCommand(t, epo, "load")
	findCommand(t, epo, "parquet")

	uspto := findCommand(t, root, "uspto")
	findCommand(t, uspto, "ingest")

	parquet := findCommand(t, root, "parquet")
	findCommand(t, parquet, "filter")
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestSubcommandFlags(t *testing.T) {
	root := NewRootCommand()

	fetch := findCommand(t, findCommand(t, root, "epo"), "fetch")
	assert.NotNil(t, fetch.Flags().Lookup("backfill-year"))

	ingest := findCommand(t, findCommand(t, root, "uspto"), "ingest")
	for _, flag := range []string{"from", "to", "key"} {
		assert.NotNil(t, ingest.Flags().Lookup(flag), flag)
	}

	filter := findCommand(t, findCommand(t, root, "parquet"), "filter")
	for _, flag := range []string{"bucket", "src", "dest", "from", "to"} {
		assert.NotNil(t, filter.Flags().Lookup(flag), flag)
	}
}

func TestRequiredFlagsRejectEmptyInvocation(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"epo", "load"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
}
