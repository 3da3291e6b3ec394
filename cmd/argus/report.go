package main

import (
	"fmt"
	"os"

	"github.com/semmidev/argus/internal/usecase"
	"github.com/spf13/cobra"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the report of the most recent backup run",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		results, ranAt, err := usecase.ReadRunLog(application.Local.Path(usecase.RunLogName))
		if err != nil {
			return fmt.Errorf("no run log found, run a backup first: %w", err)
		}

		text, _ := usecase.Summarize(results)
		text = fmt.Sprintf("Run of %s\n\n%s", ranAt.Format("2006-01-02 15:04:05 MST"), text)

		if reportOutput != "" {
			if err := os.WriteFile(reportOutput, []byte(text), 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Println("Report saved to:", reportOutput)
			return nil
		}

		fmt.Println(text)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
