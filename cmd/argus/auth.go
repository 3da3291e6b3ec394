package main

import (
	"fmt"

	"github.com/semmidev/argus/internal/app"
	"github.com/spf13/cobra"
)

var (
	authAddr   string
	authSecret string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize external services",
}

var authGDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Run the OAuth flow to obtain a Google Drive refresh token",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		oauth, err := app.NewGoogleOAuthService(application.Logger, authSecret)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := oauth.StartAuthServer(ctx, authAddr); err != nil {
			return err
		}
		fmt.Printf("Open http://localhost%s/auth/google/drive in a browser to authorize\n", authAddr)

		<-ctx.Done()
		return oauth.Shutdown(cmd.Context())
	},
}

func init() {
	authGDriveCmd.Flags().StringVar(&authAddr, "addr", ":8080", "address for the OAuth callback server")
	authGDriveCmd.Flags().StringVar(&authSecret, "client-secret", "client_secret.json", "path to the OAuth client secret file")
	authCmd.AddCommand(authGDriveCmd)
	rootCmd.AddCommand(authCmd)
}
