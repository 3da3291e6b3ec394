package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	restoreSource   string
	restoreDatabase string
)

var restoreCmd = &cobra.Command{
	Use:   "restore <artifact-path>",
	Short: "Restore a database from a backup artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		if err := application.Restore(ctx, args[0], restoreSource, restoreDatabase); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println("Restore completed successfully")
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreSource, "source", "", "source id to restore into (required)")
	restoreCmd.Flags().StringVar(&restoreDatabase, "database", "", "override the target database name")
	restoreCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(restoreCmd)
}
