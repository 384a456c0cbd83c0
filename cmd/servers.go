package cmd

import (
	"fmt"
	"io"
	"strings"

	"replex/internal/discovery"
	"replex/internal/formatting"
	"replex/pkg/plextv"
	pkgstrings "replex/pkg/strings"

	"github.com/spf13/cobra"
)

var serversOutput string

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List the media servers on the linked account",
	Long: `List the resources on the linked Plex account that provide a media
server, with the address replex would use to reach each one.`,
	Args: cobra.NoArgs,
	RunE: runServers,
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Select and store the media server address",
	Long: `Ask plex.tv for the account's resources, select the best address for
the first media server and store it. When plex.tv cannot be reached the
previously stored address is kept.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(serversCmd)
	rootCmd.AddCommand(discoverCmd)
	serversCmd.Flags().StringVarP(&serversOutput, "output", "o", "table", "Output format (table, json, yaml)")
}

func runServers(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(serversOutput)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	resources, err := application.Resources(cmd.Context())
	if err != nil {
		return asAuthRequired(err)
	}

	settings := application.Settings()
	resolver := discovery.Resolver{
		FallbackURL:    settings.Discovery.FallbackURL,
		ForceLocalHTTP: settings.Discovery.ForceLocalHTTP,
	}

	servers := []plextv.Resource{}
	for _, r := range resources {
		if r.IsServer() {
			servers = append(servers, r)
		}
	}

	return formatting.Write(cmd.OutOrStdout(), format, servers, func(out io.Writer) {
		renderServers(out, servers, resolver)
	})
}

func renderServers(out io.Writer, servers []plextv.Resource, resolver discovery.Resolver) {
	if len(servers) == 0 {
		formatting.Empty(out, "No media servers found")
		return
	}

	t := formatting.NewTable(out, "NAME", "VERSION", "OWNED", "ONLINE", "CONNECTIONS", "ADDRESS")
	for _, r := range servers {
		sel := resolver.Select([]plextv.Resource{r})
		t.AppendRow([]interface{}{
			formatting.Name(pkgstrings.Truncate(r.Name, pkgstrings.DefaultCellMaxLen)),
			r.ProductVersion,
			formatting.YesNo(r.Owned),
			formatting.YesNo(r.Presence),
			describeConnections(r.Connections),
			sel.URL,
		})
	}
	t.Render()
}

func describeConnections(conns []plextv.Connection) string {
	var local, remote, relay int
	for _, c := range conns {
		switch {
		case c.Relay:
			relay++
		case c.Local:
			local++
		default:
			remote++
		}
	}
	var parts []string
	if local > 0 {
		parts = append(parts, fmt.Sprintf("%d local", local))
	}
	if remote > 0 {
		parts = append(parts, fmt.Sprintf("%d remote", remote))
	}
	if relay > 0 {
		parts = append(parts, fmt.Sprintf("%d relay", relay))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	return printDiscovery(cmd.Context(), application, cmd.OutOrStdout())
}
