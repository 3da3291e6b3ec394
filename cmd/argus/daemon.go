package main

import (
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled backups until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		return application.RunDaemon(ctx)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
