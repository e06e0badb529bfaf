// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	datastoreEngineFlag = "datastore-engine"
	datastoreEngineConf = "manifest.engine"
	datastoreURIFlag    = "datastore-uri"
	datastoreURIConf    = "manifest.uri"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with DISKSEARCHER, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("DISKSEARCHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/disksearcher", "$HOME/.disksearcher", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// migrate reads the manifest section of config.yaml under its own flag names.
	viper.SetDefault(datastoreEngineFlag, "")
	viper.SetDefault(datastoreURIFlag, "")
	err := viper.ReadInConfig()
	if err == nil {
		viper.SetDefault(datastoreEngineFlag, viper.Get(datastoreEngineConf))
		viper.SetDefault(datastoreURIFlag, viper.Get(datastoreURIConf))
	}

	return &cobra.Command{
		Use:   "disksearcher",
		Short: "Collect matching files from a directory tree into a single directory",
		Long: `Collect matching files from a directory tree into a single directory.

disksearcher walks a directory tree with one scouter, searches every directory with a pool of searchers,
and copies each file whose name contains a pattern and ends with an extension into a destination directory
with a pool of copiers. Name collisions in the destination are resolved as name(1).ext, name(2).ext, ...`,
	}
}
