package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"replex/internal/app"
	"replex/internal/authflow"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// LinkURL is where the user enters the code.
const LinkURL = "https://plex.tv/link"

var (
	loginForce      bool
	loginNoDiscover bool
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Link this device to a Plex account",
	Long: `Request a PIN from plex.tv and wait until it is entered at
https://plex.tv/link. On success the token is stored and the account's
media server is discovered.

A PIN that expires before it is entered is replaced automatically a few
times before the login gives up.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authLoginCmd.Flags().BoolVar(&loginForce, "force", false, "Start a new login even when already logged in")
	authLoginCmd.Flags().BoolVar(&loginNoDiscover, "no-discover", false, "Skip server discovery after login")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if application.Services().Credentials.HasToken() && !loginForce {
		quietPrintln(out, "Already logged in. Use --force to link again.")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if _, err := runLoginFlow(ctx, application.NewAuthMachine(), out, cmd.ErrOrStderr()); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Logged in.\n", text.FgGreen.Sprint("✓"))

	if loginNoDiscover {
		return nil
	}
	return printDiscovery(ctx, application, out)
}

// runLoginFlow starts machine and renders its status until a terminal
// state is reached or ctx is done.
func runLoginFlow(ctx context.Context, machine *authflow.Machine, out, progress io.Writer) (authflow.Status, error) {
	updates, unsubscribe := machine.Subscribe()
	defer unsubscribe()

	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = progress
		s.Suffix = " Requesting code..."
		s.Start()
		defer s.Stop()
	}

	machine.Start()

	var shownCode string
	for {
		select {
		case <-ctx.Done():
			machine.Cancel()
			return machine.Status(), ctx.Err()
		case st := <-updates:
			if st.Code != "" && st.Code != shownCode {
				shownCode = st.Code
				if s != nil {
					s.Stop()
				}
				printCode(out, st)
				if s != nil {
					s.Suffix = " Waiting for the code to be entered..."
					s.Start()
				}
			}

			switch st.State {
			case authflow.StateAuthenticated:
				return st, nil
			case authflow.StateFailed:
				return st, &AuthFailedError{Message: st.Message, Reason: st.Err}
			}
		}
	}
}

func printCode(out io.Writer, st authflow.Status) {
	if st.Retry > 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("The previous code expired. Here is a new one."))
	}
	fmt.Fprintf(out, "\nGo to %s and enter the code:\n\n    %s\n\n",
		text.FgHiCyan.Sprint(LinkURL), text.Bold.Sprint(st.Code))
	if st.ExpiresIn > 0 {
		fmt.Fprintf(out, "The code expires in %s.\n", st.ExpiresIn.Round(time.Second))
	}
}

// printDiscovery runs discovery and reports the selected server.
func printDiscovery(ctx context.Context, application *app.Application, out io.Writer) error {
	sel, err := application.Discover(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return asAuthRequired(err)
	}

	switch {
	case sel.Degraded:
		fmt.Fprintf(out, "%s Could not reach plex.tv, using %s\n", text.FgYellow.Sprint("!"), sel.URL)
	case sel.Fallback:
		fmt.Fprintf(out, "%s No media server found on this account, using %s\n", text.FgYellow.Sprint("!"), sel.URL)
	default:
		name := ""
		if sel.Resource != nil {
			name = sel.Resource.Name
		}
		fmt.Fprintf(out, "Media server: %s (%s)\n", text.FgHiCyan.Sprint(name), sel.URL)
	}
	return nil
}
