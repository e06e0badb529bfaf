package run

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openfga/disksearcher/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		util.MustBindPFlag("queue.directoryCapacity", flags.Lookup("directory-queue-capacity"))
		util.MustBindEnv("queue.directoryCapacity", "DISKSEARCHER_QUEUE_DIRECTORY_CAPACITY", "DISKSEARCHER_QUEUE_DIRECTORYCAPACITY")

		util.MustBindPFlag("queue.resultCapacity", flags.Lookup("result-queue-capacity"))
		util.MustBindEnv("queue.resultCapacity", "DISKSEARCHER_QUEUE_RESULT_CAPACITY", "DISKSEARCHER_QUEUE_RESULTCAPACITY")

		util.MustBindPFlag("copy.bufferSize", flags.Lookup("copy-buffer-size"))
		util.MustBindEnv("copy.bufferSize", "DISKSEARCHER_COPY_BUFFER_SIZE", "DISKSEARCHER_COPY_BUFFERSIZE")

		util.MustBindPFlag("copy.verify", flags.Lookup("copy-verify"))
		util.MustBindEnv("copy.verify", "DISKSEARCHER_COPY_VERIFY")

		util.MustBindPFlag("manifest.engine", flags.Lookup("manifest-engine"))
		util.MustBindEnv("manifest.engine", "DISKSEARCHER_MANIFEST_ENGINE")

		util.MustBindPFlag("manifest.uri", flags.Lookup("manifest-uri"))
		util.MustBindEnv("manifest.uri", "DISKSEARCHER_MANIFEST_URI")

		util.MustBindPFlag("manifest.username", flags.Lookup("manifest-username"))
		util.MustBindEnv("manifest.username", "DISKSEARCHER_MANIFEST_USERNAME")

		util.MustBindPFlag("manifest.password", flags.Lookup("manifest-password"))
		util.MustBindEnv("manifest.password", "DISKSEARCHER_MANIFEST_PASSWORD")

		util.MustBindPFlag("manifest.maxOpenConns", flags.Lookup("manifest-max-open-conns"))
		util.MustBindEnv("manifest.maxOpenConns", "DISKSEARCHER_MANIFEST_MAX_OPEN_CONNS", "DISKSEARCHER_MANIFEST_MAXOPENCONNS")

		util.MustBindPFlag("manifest.maxIdleConns", flags.Lookup("manifest-max-idle-conns"))
		util.MustBindEnv("manifest.maxIdleConns", "DISKSEARCHER_MANIFEST_MAX_IDLE_CONNS", "DISKSEARCHER_MANIFEST_MAXIDLECONNS")

		util.MustBindPFlag("manifest.connMaxIdleTime", flags.Lookup("manifest-conn-max-idle-time"))
		util.MustBindEnv("manifest.connMaxIdleTime", "DISKSEARCHER_MANIFEST_CONN_MAX_IDLE_TIME", "DISKSEARCHER_MANIFEST_CONNMAXIDLETIME")

		util.MustBindPFlag("manifest.connMaxLifetime", flags.Lookup("manifest-conn-max-lifetime"))
		util.MustBindEnv("manifest.connMaxLifetime", "DISKSEARCHER_MANIFEST_CONN_MAX_LIFETIME", "DISKSEARCHER_MANIFEST_CONNMAXLIFETIME")

		util.MustBindPFlag("manifest.metrics.enabled", flags.Lookup("manifest-metrics-enabled"))
		util.MustBindEnv("manifest.metrics.enabled", "DISKSEARCHER_MANIFEST_METRICS_ENABLED")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "DISKSEARCHER_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "DISKSEARCHER_LOG_LEVEL")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "DISKSEARCHER_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "DISKSEARCHER_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
		util.MustBindEnv("trace.otlp.tls.enabled", "DISKSEARCHER_TRACE_OTLP_TLS_ENABLED")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "DISKSEARCHER_TRACE_SAMPLE_RATIO", "DISKSEARCHER_TRACE_SAMPLERATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "DISKSEARCHER_TRACE_SERVICE_NAME", "DISKSEARCHER_TRACE_SERVICENAME")

		util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
		util.MustBindEnv("metrics.enabled", "DISKSEARCHER_METRICS_ENABLED")

		util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
		util.MustBindEnv("metrics.addr", "DISKSEARCHER_METRICS_ADDR")

		util.MustBindPFlag("output", flags.Lookup("output"))
		util.MustBindEnv("output", "DISKSEARCHER_OUTPUT")
	}
}

// parseRunArgs parses the flags found in args and checks that exactly six
// positional arguments remain. The run command parses its own flags: a token
// starting with a dash is a flag only when it names one of the command's
// flags, so a PATTERN such as '-final' or a count such as '-2' stays
// positional. Everything after '--' is positional.
func parseRunArgs(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	flagArgs, positional := splitArgs(flags, args)

	if err := flags.Parse(flagArgs); err != nil {
		return err
	}
	// A second parse only records the positional arguments, so flags.Args()
	// returns them. Flag values from the first parse are kept.
	if err := flags.Parse(append([]string{"--"}, positional...)); err != nil {
		return err
	}
	if help, _ := flags.GetBool("help"); help {
		return pflag.ErrHelp
	}

	return cobra.ExactArgs(6)(cmd, flags.Args())
}

// splitArgs separates the flags of args, with their values, from the
// positional arguments. Unknown long flags are kept as flags so parsing
// reports them.
func splitArgs(flags *pflag.FlagSet, args []string) (flagArgs, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return flagArgs, append(positional, args[i+1:]...)
		case strings.HasPrefix(arg, "--"):
			flagArgs = append(flagArgs, arg)
			name, _, hasValue := strings.Cut(arg[2:], "=")
			if f := flags.Lookup(name); f != nil && !hasValue && f.NoOptDefVal == "" && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		case len(arg) > 1 && arg[0] == '-':
			f := flags.ShorthandLookup(arg[1:2])
			if f == nil {
				positional = append(positional, arg)
				continue
			}
			flagArgs = append(flagArgs, arg)
			if len(arg) == 2 && f.NoOptDefVal == "" && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	return flagArgs, positional
}
