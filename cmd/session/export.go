package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nodandknow/contexts/live-session/session-engine/application/queries"
	"nodandknow/internal/app/bootstrap"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the anonymized vote export from the configured store",
		Long: `Print the anonymized export as JSON. With --dir the export is written
to securematch_data_YYYY-MM-DD.json inside that directory instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			sessionCfg, err := bootstrap.SessionConfig(cfg)
			if err != nil {
				return err
			}
			handle, err := bootstrap.OpenStore(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer func() { _ = handle.Close() }()

			reporting := queries.ReportingUseCase{Store: handle.Store, Catalog: sessionCfg.Catalog}
			exported, err := reporting.ExportAnonymized(cmd.Context())
			if err != nil {
				return err
			}
			if dir == "" {
				return writeJSON(cmd.OutOrStdout(), exported)
			}
			path := filepath.Join(dir, exported.SuggestedFileName())
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := writeJSON(file, exported); err != nil {
				_ = file.Close()
				return fmt.Errorf("write export file: %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "write the export file into this directory")
	return cmd
}
