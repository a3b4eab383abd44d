package main

import (
	"fmt"
	"os"

	"github.com/akeren/klyr-waitlist/config"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries what every subcommand shares.
type cli struct {
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:           "klyr",
		Short:         "Klyr waitlist tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.logger = log.NewLoggerWithJSONOutputTo(cmd.ErrOrStderr())
			config.InitializeEnvFile(app.logger)
		},
	}

	root.AddCommand(newMigrateCmd(app))
	root.AddCommand(newJoinCmd(app))
	root.AddCommand(newCountCmd(app))
	return root
}
