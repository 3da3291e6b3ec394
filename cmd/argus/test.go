package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity of all sources and targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		failures := 0
		for _, check := range application.Manager.CheckConnections(ctx) {
			if check.Err != nil {
				failures++
				fmt.Printf("%s (%s): FAILED - %v\n", check.Name, check.Kind, check.Err)
			} else {
				fmt.Printf("%s (%s): OK\n", check.Name, check.Kind)
			}
		}

		if failures > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
