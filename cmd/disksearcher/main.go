package main

import (
	"os"

	"github.com/openfga/disksearcher/cmd"
	"github.com/openfga/disksearcher/cmd/copyfile"
	"github.com/openfga/disksearcher/cmd/migrate"
	"github.com/openfga/disksearcher/cmd/run"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	runCmd := run.NewRunCommand()
	rootCmd.AddCommand(runCmd)

	migrateCmd := migrate.NewMigrateCommand()
	rootCmd.AddCommand(migrateCmd)

	copyCmd := copyfile.NewCopyCommand()
	rootCmd.AddCommand(copyCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
