package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired artifacts from all targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		for _, report := range application.Manager.PruneAll(ctx) {
			fmt.Printf("%s: deleted %d, kept %d", report.TargetID, report.Deleted, report.Kept)
			if report.Failed > 0 {
				fmt.Printf(", %d failed", report.Failed)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
