package main

import (
	"fmt"

	"github.com/pevans/riuff/dataset"
	"github.com/spf13/cobra"
)

// NewLatestCmd creates the latest command, which reports the most recent
// dataset.
func NewLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			path, err := dataset.Latest(cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.OutputDir, err)
			}

			records, err := dataset.Load(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d items\n", path, len(records))
			return nil
		},
	}
}
