// Package copyfile contains the command that copies a single file with the same
// buffered transfer the pipeline copiers use.
package copyfile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openfga/disksearcher/cmd/util"
	"github.com/openfga/disksearcher/internal/config"
	"github.com/openfga/disksearcher/internal/fileutil"
)

const (
	forceFlag      = "force"
	bufferSizeFlag = "buffer-size"
	verifyFlag     = "verify"

	// DefaultBufferSize is also the largest accepted buffer.
	DefaultBufferSize = config.MaxCopyBufferSize

	// destinationMode is rw-r--r--.
	destinationMode = 0o644
)

func NewCopyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy SOURCE DEST",
		Short: "Copy a single file through a fixed-size buffer",
		Long: `Copy SOURCE to DEST through a fixed-size buffer.

DEST must not exist unless --force is given, in which case it is truncated.`,
		RunE: runCopy,
		Args: cobra.ExactArgs(2),
	}

	flags := cmd.Flags()

	flags.BoolP(forceFlag, "f", false, "truncate DEST if it already exists")
	flags.Int(bufferSizeFlag, DefaultBufferSize, fmt.Sprintf("the size in bytes of the transfer buffer (1 to %d)", config.MaxCopyBufferSize))
	flags.Bool(verifyFlag, false, "re-read DEST and compare its checksum with SOURCE")

	cmd.PreRun = bindCopyFlagsFunc(flags)

	return cmd
}

func bindCopyFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		util.MustBindPFlag("copy-"+forceFlag, flags.Lookup(forceFlag))
		util.MustBindPFlag("copy-"+bufferSizeFlag, flags.Lookup(bufferSizeFlag))
		util.MustBindPFlag("copy-"+verifyFlag, flags.Lookup(verifyFlag))
	}
}

func runCopy(cmd *cobra.Command, args []string) error {
	source, destination := args[0], args[1]
	if source == "" || destination == "" {
		return fmt.Errorf("invalid source / destination file name")
	}

	bufferSize := viper.GetInt("copy-" + bufferSizeFlag)
	if bufferSize < 1 || bufferSize > config.MaxCopyBufferSize {
		return fmt.Errorf("invalid buffer size %d: must be between 1 and %d", bufferSize, config.MaxCopyBufferSize)
	}

	cmd.SilenceUsage = true

	_, err := fileutil.CopyFile(source, destination,
		fileutil.WithBufferSize(bufferSize),
		fileutil.WithForce(viper.GetBool("copy-"+forceFlag)),
		fileutil.WithVerify(viper.GetBool("copy-"+verifyFlag)),
		fileutil.WithMode(destinationMode),
	)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "File %s was successfully copied to %s\n", source, destination)
	return err
}
