package cmd

import (
	"fmt"
	"os"

	"variant-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Persistent flags overriding the loaded configuration
	channelFlag string
	verboseFlag bool
	cleanFlag   bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "variant-manager",
	Short: "Variant File Manager",
	Long: `Variant Manager materializes one output source tree from a shared main tree
and an optional channel tree of per-variant overrides. Channel entries win over
main entries at the same relative path.

It keeps the output consistent with a full sync at startup and, while watching,
applies every change of the input trees incrementally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config for readable CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&channelFlag, "channel", "", "Active channel name (overrides VARIANT_CHANNEL)")
	RootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable diagnostic output")
	RootCmd.PersistentFlags().BoolVar(&cleanFlag, "clean", false, "Wipe the output tree before a full sync")
}
