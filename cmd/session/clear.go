package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nodandknow/internal/app/bootstrap"
)

func newClearCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored vote",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to clear votes without --force")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			handle, err := bootstrap.OpenStore(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer func() { _ = handle.Close() }()

			if err := handle.Store.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s store\n", cfg.StoreDriver)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}
