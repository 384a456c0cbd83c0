package cmd

import (
	"github.com/spf13/cobra"
)

// authCmd represents the auth command group.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Plex account link",
	Long: `Manage the link between this device and a Plex account.

The login flow shows a short code to enter at https://plex.tv/link. Once
the code is entered the account token is stored encrypted in the
configuration directory.

Examples:
  # Link this device
  replex auth login

  # Show the current link
  replex auth status

  # Remove stored credentials
  replex auth logout`,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Long: `Remove the stored token, server address and user name.

The device identifier is kept, so a later login registers this device
again rather than a new one.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	creds := application.Services().Credentials
	if !creds.HasToken() {
		quietPrintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	if err := application.Logout(); err != nil {
		return err
	}
	quietPrintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
