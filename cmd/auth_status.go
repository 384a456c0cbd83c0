package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"replex/internal/app"
	"replex/internal/formatting"

	"github.com/spf13/cobra"
)

var statusWatch bool

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current account link",
	Long: `Show whether this device is linked to a Plex account, along with the
stored user name, media server address and device identifier.

With --watch the status is printed again whenever another replex process
changes the stored credentials.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authStatusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep running and print changes")
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := renderAuthStatus(out, application); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	err = application.Services().Credentials.Watch(ctx, func() {
		fmt.Fprintln(out)
		if err := renderAuthStatus(out, application); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func renderAuthStatus(out io.Writer, application *app.Application) error {
	services := application.Services()
	creds := services.Credentials

	clientID, err := services.Identity.GetClientID()
	if err != nil {
		return err
	}

	t := formatting.NewTable(out)

	linked := formatting.Bad("Not logged in")
	if creds.HasToken() {
		linked = formatting.Good("Logged in")
	}
	t.AppendRow([]interface{}{formatting.Key("Status"), linked})

	if name, ok := creds.UserName(); ok {
		t.AppendRow([]interface{}{formatting.Key("User"), name})
	}
	if serverURL, ok := creds.ServerURL(); ok {
		t.AppendRow([]interface{}{formatting.Key("Server"), serverURL})
	}

	t.AppendRow([]interface{}{formatting.Key("Device"), clientID})

	storage := formatting.Good("encrypted")
	if !creds.Encrypted() {
		storage = formatting.Warn("plaintext")
	}
	t.AppendRow([]interface{}{formatting.Key("Credentials"), fmt.Sprintf("%s (%s)", creds.Path(), storage)})

	t.Render()
	return nil
}
