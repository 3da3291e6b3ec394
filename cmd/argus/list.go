package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listSource string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts in the local backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		ctx, cancel := signalContext()
		defer cancel()

		files, err := application.Manager.ListArtifacts(ctx, listSource)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			fmt.Println("No backup artifacts found")
			return nil
		}

		for _, f := range files {
			fmt.Printf("%s  %10.2f MB  %s\n",
				f.ModTime.Format("2006-01-02 15:04:05"),
				float64(f.Size)/(1024*1024),
				f.Name)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSource, "source", "", "only list artifacts of this source")
	rootCmd.AddCommand(listCmd)
}
