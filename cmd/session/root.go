package main

import (
	"github.com/spf13/cobra"

	"nodandknow/internal/platform/config"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "session",
		Short: "Run a nod-and-know live voting session",
		Long: `session drives the INFO -> QUESTION -> RESULTS cycle of a live
security awareness poll, admits one vote per identity per question and
publishes minority and conflict signals.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(
		newRunCmd(opts),
		newExportCmd(opts),
		newClearCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.LoadFile(o.envFile)
}
