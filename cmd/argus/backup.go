package main

import (
	"fmt"
	"os"

	"github.com/semmidev/argus/internal/usecase"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [source-id...]",
	Short: "Back up all sources, or only the named ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		results, err := application.Manager.Run(ctx, args...)
		if err != nil {
			return err
		}

		text, code := usecase.Summarize(results)
		fmt.Println(text)

		if code != usecase.ExitOK {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
