package migrate

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openfga/disksearcher/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		util.MustBindPFlag(datastoreEngineFlag, flags.Lookup(datastoreEngineFlag))
		util.MustBindEnv(datastoreEngineFlag, "DISKSEARCHER_DATASTORE_ENGINE")

		util.MustBindPFlag(datastoreURIFlag, flags.Lookup(datastoreURIFlag))
		util.MustBindEnv(datastoreURIFlag, "DISKSEARCHER_DATASTORE_URI")

		util.MustBindPFlag(datastoreUsernameFlag, flags.Lookup(datastoreUsernameFlag))
		util.MustBindEnv(datastoreUsernameFlag, "DISKSEARCHER_DATASTORE_USERNAME")

		util.MustBindPFlag(datastorePasswordFlag, flags.Lookup(datastorePasswordFlag))
		util.MustBindEnv(datastorePasswordFlag, "DISKSEARCHER_DATASTORE_PASSWORD")

		util.MustBindPFlag(versionFlag, flags.Lookup(versionFlag))
		util.MustBindEnv(versionFlag, "DISKSEARCHER_VERSION")

		util.MustBindPFlag(timeoutFlag, flags.Lookup(timeoutFlag))
		util.MustBindEnv(timeoutFlag, "DISKSEARCHER_TIMEOUT")

		util.MustBindPFlag(verboseMigrationFlag, flags.Lookup(verboseMigrationFlag))
		util.MustBindEnv(verboseMigrationFlag, "DISKSEARCHER_VERBOSE")

		util.MustBindPFlag(logFormatFlag, flags.Lookup(logFormatFlag))
		util.MustBindEnv(logFormatFlag, "DISKSEARCHER_LOG_FORMAT")

		util.MustBindPFlag(logLevelFlag, flags.Lookup(logLevelFlag))
		util.MustBindEnv(logLevelFlag, "DISKSEARCHER_LOG_LEVEL")
	}
}
